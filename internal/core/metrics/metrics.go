package metrics

import (
	"context"
	"net/http"

	"github.com/frahmantamala/project-ledger/internal/core/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ledger holds the collectors fed by domain events.
type Ledger struct {
	registry *prometheus.Registry

	fundMovements      *prometheus.CounterVec
	fundAmount         *prometheus.CounterVec
	installments       *prometheus.CounterVec
	installmentAmount  prometheus.Counter
	editPermissions    *prometheus.CounterVec
	expiredPermissions prometheus.Counter
}

func NewLedger() *Ledger {
	m := &Ledger{
		registry: prometheus.NewRegistry(),
		fundMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "fund_movements_total",
			Help:      "Fund mutations by event type and direction.",
		}, []string{"event", "direction"}),
		fundAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "fund_amount_total",
			Help:      "Sum of moved amounts in minor units.",
		}, []string{"event", "direction"}),
		installments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "installments_total",
			Help:      "Installments paid, split by whether the linked expense was posted.",
		}, []string{"linked"}),
		installmentAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "installment_amount_total",
			Help:      "Sum of installment amounts in minor units.",
		}),
		editPermissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "edit_permission_changes_total",
			Help:      "Edit permission grants and revocations.",
		}, []string{"action", "scope"}),
		expiredPermissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "edit_permissions_expired_total",
			Help:      "Edit permissions deactivated by the expiry sweep.",
		}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.fundMovements,
		m.fundAmount,
		m.installments,
		m.installmentAmount,
		m.editPermissions,
		m.expiredPermissions,
	)
	return m
}

func (m *Ledger) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Ledger) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Subscribe registers the collectors on the bus.
func (m *Ledger) Subscribe(bus *events.EventBus) {
	for _, t := range []string{
		events.EventTypeFundDeposited,
		events.EventTypeFundWithdrawn,
		events.EventTypeAdminTransaction,
	} {
		bus.Subscribe(t, m.onFundMoved)
	}
	bus.Subscribe(events.EventTypeInstallmentPaid, m.onInstallmentPaid)
	bus.Subscribe(events.EventTypeEditPermissionGranted, m.onEditPermission)
	bus.Subscribe(events.EventTypeEditPermissionRevoked, m.onEditPermission)
	bus.Subscribe(events.EventTypeEditPermissionsExpired, m.onExpired)
}

func (m *Ledger) onFundMoved(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.FundMovedEvent)
	if !ok {
		return nil
	}
	m.fundMovements.WithLabelValues(ev.Type, ev.Direction).Inc()
	m.fundAmount.WithLabelValues(ev.Type, ev.Direction).Add(float64(ev.Amount))
	return nil
}

func (m *Ledger) onInstallmentPaid(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.InstallmentPaidEvent)
	if !ok {
		return nil
	}
	linked := "false"
	if ev.Linked {
		linked = "true"
	}
	m.installments.WithLabelValues(linked).Inc()
	m.installmentAmount.Add(float64(ev.Amount))
	return nil
}

func (m *Ledger) onEditPermission(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.EditPermissionEvent)
	if !ok {
		return nil
	}
	action := "granted"
	if ev.Type == events.EventTypeEditPermissionRevoked {
		action = "revoked"
	}
	scope := "user"
	if ev.ProjectScope {
		scope = "project"
	}
	m.editPermissions.WithLabelValues(action, scope).Inc()
	return nil
}

func (m *Ledger) onExpired(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.EditPermissionsExpiredEvent)
	if !ok {
		return nil
	}
	m.expiredPermissions.Add(float64(ev.Count))
	return nil
}
