package editpermission_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/datamodel"
	editDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/editpermission"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	userDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
	"github.com/frahmantamala/project-ledger/internal/editpermission"
	editPostgres "github.com/frahmantamala/project-ledger/internal/editpermission/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestEditPermission(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Edit Permission Suite")
}

const (
	adminID   int64 = 1
	memberID  int64 = 2
	projectID int64 = 7
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func ptr(v int64) *int64 { return &v }

func openDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)
	Expect(db.AutoMigrate(datamodel.Models()...)).To(Succeed())

	Expect(db.Create(&userDatamodel.User{ID: adminID, Email: "admin@ledger.io", Name: "Admin", PasswordHash: "x", Role: userDatamodel.RoleAdmin, IsActive: true}).Error).To(Succeed())
	Expect(db.Create(&userDatamodel.User{ID: memberID, Email: "member@ledger.io", Name: "Member", PasswordHash: "x", Role: userDatamodel.RoleUser, IsActive: true}).Error).To(Succeed())
	Expect(db.Create(&projectDatamodel.Project{ID: projectID, Name: "Bridge", CreatedBy: adminID}).Error).To(Succeed())
	return db
}

func activeCount(db *gorm.DB) int64 {
	var n int64
	Expect(db.Model(&editDatamodel.TransactionEditPermission{}).Where("is_active = ?", true).Count(&n).Error).To(Succeed())
	return n
}

var _ = Describe("Edit Permission Service", func() {
	var (
		db      *gorm.DB
		clock   *fakeClock
		service *editpermission.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		db = openDB()
		clock = &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = editpermission.NewService(editPostgres.NewEditPermissionRepository(db), nil, slogger, editpermission.WithClock(clock.Now))
		ctx = context.Background()
	})

	Describe("Grant", func() {
		It("creates a grant that expires after 42 hours", func() {
			result, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Toggled).To(BeFalse())
			Expect(result.Permission.IsActive).To(BeTrue())
			Expect(result.Permission.ExpiresAt.Sub(result.Permission.GrantedAt)).To(Equal(42 * time.Hour))
		})

		It("toggles an existing grant off on the second call", func() {
			first, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
			Expect(err).NotTo(HaveOccurred())

			second, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Toggled).To(BeTrue())
			Expect(second.Permission.ID).To(Equal(first.Permission.ID))
			Expect(second.Permission.IsActive).To(BeFalse())
			Expect(*second.Permission.RevokedBy).To(Equal(adminID))
			Expect(activeCount(db)).To(BeZero())

			third, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
			Expect(err).NotTo(HaveOccurred())
			Expect(third.Toggled).To(BeFalse())
			Expect(third.Permission.ID).NotTo(Equal(first.Permission.ID))
		})

		It("keeps user and project grants independent", func() {
			_, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
			Expect(err).NotTo(HaveOccurred())
			result, err := service.Grant(ctx, adminID, editpermission.GrantDTO{ProjectID: ptr(projectID)})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Toggled).To(BeFalse())
			Expect(activeCount(db)).To(Equal(int64(2)))
		})

		It("replaces an expired grant the sweep has not reached", func() {
			first, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
			Expect(err).NotTo(HaveOccurred())
			clock.Advance(43 * time.Hour)

			second, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Toggled).To(BeFalse())
			Expect(second.Permission.ID).NotTo(Equal(first.Permission.ID))
			Expect(activeCount(db)).To(Equal(int64(1)))
		})

		It("requires exactly one target", func() {
			_, err := service.Grant(ctx, adminID, editpermission.GrantDTO{})
			Expect(errors.Is(err, internal.ErrInvalidTarget)).To(BeTrue())

			_, err = service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID), ProjectID: ptr(projectID)})
			Expect(errors.Is(err, internal.ErrInvalidTarget)).To(BeTrue())
			Expect(activeCount(db)).To(BeZero())
		})

		It("rejects unknown targets", func() {
			_, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(99)})
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())

			_, err = service.Grant(ctx, adminID, editpermission.GrantDTO{ProjectID: ptr(99)})
			Expect(errors.Is(err, internal.ErrProjectNotFound)).To(BeTrue())
		})
	})

	Describe("Revoke", func() {
		It("deactivates an active grant", func() {
			granted, err := service.Grant(ctx, adminID, editpermission.GrantDTO{ProjectID: ptr(projectID)})
			Expect(err).NotTo(HaveOccurred())

			revoked, err := service.Revoke(ctx, granted.Permission.ID, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked.IsActive).To(BeFalse())
			Expect(revoked.RevokedAt).NotTo(BeNil())
		})

		It("reports dead grants as not found or inactive", func() {
			granted, err := service.Grant(ctx, adminID, editpermission.GrantDTO{ProjectID: ptr(projectID)})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Revoke(ctx, granted.Permission.ID, adminID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Revoke(ctx, granted.Permission.ID, adminID)
			Expect(errors.Is(err, internal.ErrNotFoundOrInactive)).To(BeTrue())

			_, err = service.Revoke(ctx, 12345, adminID)
			Expect(errors.Is(err, internal.ErrNotFoundOrInactive)).To(BeTrue())
		})
	})

	Describe("Check", func() {
		It("matches the user or the project and ignores expired grants", func() {
			_, err := service.Grant(ctx, adminID, editpermission.GrantDTO{ProjectID: ptr(projectID)})
			Expect(err).NotTo(HaveOccurred())

			p, err := service.Check(ctx, memberID, ptr(projectID))
			Expect(err).NotTo(HaveOccurred())
			Expect(p).NotTo(BeNil())
			Expect(*p.ProjectID).To(Equal(projectID))

			p, err = service.Check(ctx, memberID, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeNil())

			clock.Advance(42 * time.Hour)
			ok, err := service.HasActiveGrant(ctx, memberID, ptr(projectID))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("prefers the user's own grant", func() {
			_, err := service.Grant(ctx, adminID, editpermission.GrantDTO{ProjectID: ptr(projectID)})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
			Expect(err).NotTo(HaveOccurred())

			p, err := service.Check(ctx, memberID, ptr(projectID))
			Expect(err).NotTo(HaveOccurred())
			Expect(p.UserID).NotTo(BeNil())
		})
	})

	Describe("ExpireSweep", func() {
		It("flips every expired grant once", func() {
			_, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
			Expect(err).NotTo(HaveOccurred())
			clock.Advance(10 * time.Hour)
			_, err = service.Grant(ctx, adminID, editpermission.GrantDTO{ProjectID: ptr(projectID)})
			Expect(err).NotTo(HaveOccurred())

			clock.Advance(32 * time.Hour)
			count, err := service.ExpireSweep(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))

			count, err = service.ExpireSweep(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())

			clock.Advance(10 * time.Hour)
			count, err = service.ExpireSweep(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
			Expect(activeCount(db)).To(BeZero())
		})

		It("leaves nothing active past its expiry", func() {
			for i := 0; i < 3; i++ {
				_, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
				Expect(err).NotTo(HaveOccurred())
				clock.Advance(time.Hour)
			}
			clock.Advance(48 * time.Hour)

			_, err := service.ExpireSweep(ctx)
			Expect(err).NotTo(HaveOccurred())

			var stale int64
			Expect(db.Model(&editDatamodel.TransactionEditPermission{}).
				Where("is_active = ? AND expires_at <= ?", true, clock.Now()).
				Count(&stale).Error).To(Succeed())
			Expect(stale).To(BeZero())
		})
	})

	Describe("ListActive", func() {
		It("lists unexpired active grants", func() {
			_, err := service.Grant(ctx, adminID, editpermission.GrantDTO{UserID: ptr(memberID)})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Grant(ctx, adminID, editpermission.GrantDTO{ProjectID: ptr(projectID)})
			Expect(err).NotTo(HaveOccurred())

			permissions, err := service.ListActive(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions).To(HaveLen(2))
		})
	})
})
