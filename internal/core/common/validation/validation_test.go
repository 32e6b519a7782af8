package validation_test

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

var _ = Describe("Validation", func() {
	Describe("ValidateAmount", func() {
		It("accepts positive amounts", func() {
			Expect(validation.ValidateAmount(1)).To(BeNil())
		})

		It("rejects zero and negative amounts as INVALID_AMOUNT", func() {
			for _, amount := range []int64{0, -1, -500} {
				err := validation.ValidateAmount(amount)
				Expect(err).NotTo(BeNil())
				Expect(err.Code).To(Equal(apperrors.ErrCodeInvalidAmount))
				Expect(errors.Is(err, apperrors.ErrInvalidAmount)).To(BeTrue())
			}
		})
	})

	Describe("ValidateDescription", func() {
		It("requires non-blank text", func() {
			Expect(validation.ValidateDescription("   ")).NotTo(BeNil())
			Expect(validation.ValidateDescription("cement")).To(BeNil())
		})

		It("caps the length", func() {
			err := validation.ValidateDescription(strings.Repeat("x", validation.MaxDescriptionLength+1))
			Expect(err).NotTo(BeNil())
			Expect(err.GetDetailedMessage()).To(ContainSubstring("must not exceed"))
		})
	})

	Describe("ValidateTransactionType", func() {
		It("only knows income and expense", func() {
			Expect(validation.ValidateTransactionType("income")).To(BeNil())
			Expect(validation.ValidateTransactionType("expense")).To(BeNil())

			err := validation.ValidateTransactionType("refund")
			Expect(err).NotTo(BeNil())
			Expect(errors.Is(err, apperrors.ErrInvalidType)).To(BeTrue())
		})
	})

	It("falls back to VALIDATION_FAILED when codes differ", func() {
		v := validation.NewValidator()
		v.Field("amount", int64(0)).Positive()
		v.Field("description", "").Required()

		err := v.Validate()
		Expect(err).NotTo(BeNil())
		Expect(err.Code).To(Equal(apperrors.ErrCodeValidationFailed))
		Expect(err.Details.(apperrors.ValidationErrors).Errors).To(HaveLen(2))
	})
})
