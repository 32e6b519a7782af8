package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeFundDeposited          = "fund.deposited"
	EventTypeFundWithdrawn          = "fund.withdrawn"
	EventTypeAdminTransaction       = "fund.admin_transaction"
	EventTypeInstallmentPaid        = "deferred.installment_paid"
	EventTypeEditPermissionGranted  = "edit_permission.granted"
	EventTypeEditPermissionRevoked  = "edit_permission.revoked"
	EventTypeEditPermissionsExpired = "edit_permission.expired"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// FundMovedEvent covers deposits, withdrawals and admin transactions.
// ProjectID is zero for admin fund movements.
type FundMovedEvent struct {
	BaseEvent
	TransactionID int64  `json:"transaction_id"`
	ProjectID     int64  `json:"project_id,omitempty"`
	ActorID       int64  `json:"actor_id"`
	Direction     string `json:"direction"`
	Amount        int64  `json:"amount"`
}

func NewFundDepositedEvent(transactionID, projectID, actorID, amount int64) *FundMovedEvent {
	return newFundMoved(EventTypeFundDeposited, transactionID, projectID, actorID, "income", amount)
}

func NewFundWithdrawnEvent(transactionID, projectID, actorID, amount int64) *FundMovedEvent {
	return newFundMoved(EventTypeFundWithdrawn, transactionID, projectID, actorID, "expense", amount)
}

func NewAdminTransactionEvent(transactionID, actorID int64, direction string, amount int64) *FundMovedEvent {
	return newFundMoved(EventTypeAdminTransaction, transactionID, 0, actorID, direction, amount)
}

func newFundMoved(eventType string, transactionID, projectID, actorID int64, direction string, amount int64) *FundMovedEvent {
	return &FundMovedEvent{
		BaseEvent: newBase(eventType, map[string]interface{}{
			"transaction_id": transactionID,
			"project_id":     projectID,
			"actor_id":       actorID,
			"direction":      direction,
			"amount":         amount,
		}),
		TransactionID: transactionID,
		ProjectID:     projectID,
		ActorID:       actorID,
		Direction:     direction,
		Amount:        amount,
	}
}

type InstallmentPaidEvent struct {
	BaseEvent
	DeferredPaymentID int64  `json:"deferred_payment_id"`
	Amount            int64  `json:"amount"`
	Remaining         int64  `json:"remaining"`
	Status            string `json:"status"`
	Linked            bool   `json:"linked"`
}

func NewInstallmentPaidEvent(deferredPaymentID, amount, remaining int64, status string, linked bool) *InstallmentPaidEvent {
	return &InstallmentPaidEvent{
		BaseEvent: newBase(EventTypeInstallmentPaid, map[string]interface{}{
			"deferred_payment_id": deferredPaymentID,
			"amount":              amount,
			"remaining":           remaining,
			"status":              status,
			"linked":              linked,
		}),
		DeferredPaymentID: deferredPaymentID,
		Amount:            amount,
		Remaining:         remaining,
		Status:            status,
		Linked:            linked,
	}
}

type EditPermissionEvent struct {
	BaseEvent
	PermissionID int64 `json:"permission_id"`
	ActorID      int64 `json:"actor_id"`
	ProjectScope bool  `json:"project_scope"`
}

func NewEditPermissionGrantedEvent(permissionID, actorID int64, projectScope bool) *EditPermissionEvent {
	return newEditPermission(EventTypeEditPermissionGranted, permissionID, actorID, projectScope)
}

func NewEditPermissionRevokedEvent(permissionID, actorID int64, projectScope bool) *EditPermissionEvent {
	return newEditPermission(EventTypeEditPermissionRevoked, permissionID, actorID, projectScope)
}

func newEditPermission(eventType string, permissionID, actorID int64, projectScope bool) *EditPermissionEvent {
	return &EditPermissionEvent{
		BaseEvent: newBase(eventType, map[string]interface{}{
			"permission_id": permissionID,
			"actor_id":      actorID,
			"project_scope": projectScope,
		}),
		PermissionID: permissionID,
		ActorID:      actorID,
		ProjectScope: projectScope,
	}
}

type EditPermissionsExpiredEvent struct {
	BaseEvent
	Count int64 `json:"count"`
}

func NewEditPermissionsExpiredEvent(count int64) *EditPermissionsExpiredEvent {
	return &EditPermissionsExpiredEvent{
		BaseEvent: newBase(EventTypeEditPermissionsExpired, map[string]interface{}{"count": count}),
		Count:     count,
	}
}
