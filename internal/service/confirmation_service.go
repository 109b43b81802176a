package service

import (
	"context"
	"errors"
	"time"

	"tutorly/internal/events"
	"tutorly/internal/metrics"
	"tutorly/internal/models"
	"tutorly/internal/repository"
	"tutorly/pkg/payment"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Confirmation reasons form a small closed set so the presentation layer
// can render safe, internals-free messaging.
const (
	ReasonOK              = "ok"
	ReasonBadSignature    = "bad-signature"
	ReasonAmountMismatch  = "amount-mismatch"
	ReasonGatewayDeclined = "gateway-declined"
	ReasonNotFound        = "not-found"
	ReasonUnhandled       = "unhandled"
)

// ConfirmResult is what callback handlers translate into each provider's
// acknowledgment vocabulary.
type ConfirmResult struct {
	Reason      string
	OrderID     uint
	AlreadyPaid bool
}

func (r ConfirmResult) OK() bool { return r.Reason == ReasonOK }

// OrderStore is the slice of OrderRepository the orchestrator needs.
type OrderStore interface {
	GetByID(id uint) (*models.Order, error)
	MarkPaid(id uint, method, ref string, meta map[string]string, paidAt time.Time) (bool, error)
}

// SlotReserver commits requested slots exclusively to one order.
type SlotReserver interface {
	Reserve(teacherID uint, tokens []string, orderID uint) error
}

// ScheduleGenerator expands a paid order into dated occurrences.
type ScheduleGenerator interface {
	GenerateForOrder(ctx context.Context, order *models.Order, paidAt time.Time) error
}

// ConfirmationService turns verified provider callbacks into the
// pending -> paid transition plus its follow-up steps. Payment
// verification failures abort confirmation; reservation and generation
// failures are logged and counted but never block it, because the funds
// are already captured.
type ConfirmationService struct {
	orders       OrderStore
	reservations SlotReserver
	scheduler    ScheduleGenerator
	gateways     map[payment.Provider]payment.Gateway
	publisher    events.Publisher
	metrics      *metrics.PaymentMetrics
	now          func() time.Time
}

func NewConfirmationService(
	orders OrderStore,
	reservations SlotReserver,
	scheduler ScheduleGenerator,
	gateways map[payment.Provider]payment.Gateway,
	publisher events.Publisher,
	m *metrics.PaymentMetrics,
) *ConfirmationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ConfirmationService{
		orders:       orders,
		reservations: reservations,
		scheduler:    scheduler,
		gateways:     gateways,
		publisher:    publisher,
		metrics:      m,
		now:          time.Now,
	}
}

// Confirm verifies a raw provider callback and, on the first
// amount-correct success outcome, transitions the order to paid. Repeat
// deliveries of the same callback are no-ops reported as success so the
// provider stops retrying.
func (s *ConfirmationService) Confirm(ctx context.Context, provider payment.Provider, p payment.Payload) ConfirmResult {
	res := s.confirm(ctx, provider, p)
	if s.metrics != nil {
		s.metrics.RecordCallback(string(provider), res.Reason)
	}
	return res
}

func (s *ConfirmationService) confirm(ctx context.Context, provider payment.Provider, p payment.Payload) ConfirmResult {
	gw, ok := s.gateways[provider]
	if !ok {
		logrus.WithField("provider", provider).Warn("callback for unknown provider")
		return ConfirmResult{Reason: ReasonUnhandled}
	}

	outcome := gw.VerifyCallback(ctx, p)
	log := logrus.WithFields(logrus.Fields{
		"provider": provider,
		"order_id": outcome.OrderID,
		"txn_id":   outcome.ProviderTxnID,
	})
	switch outcome.Status {
	case payment.OutcomeBadSignature:
		log.Warn("callback signature mismatch")
		return ConfirmResult{Reason: ReasonBadSignature, OrderID: outcome.OrderID}
	case payment.OutcomeMalformed:
		log.Warn("malformed callback payload")
		return ConfirmResult{Reason: ReasonUnhandled}
	}
	if outcome.OrderID == 0 {
		log.Warn("callback references no decodable order")
		return ConfirmResult{Reason: ReasonNotFound}
	}

	order, err := s.orders.GetByID(outcome.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("callback references unknown order")
			return ConfirmResult{Reason: ReasonNotFound, OrderID: outcome.OrderID}
		}
		log.WithError(err).Error("order lookup failed")
		return ConfirmResult{Reason: ReasonUnhandled, OrderID: outcome.OrderID}
	}
	if order.Status == models.OrderStatusPaid {
		return ConfirmResult{Reason: ReasonOK, OrderID: order.ID, AlreadyPaid: true}
	}
	if outcome.Status == payment.OutcomeDeclined {
		log.WithField("code", outcome.ResponseCode).Info("gateway declined transaction")
		return ConfirmResult{Reason: ReasonGatewayDeclined, OrderID: order.ID}
	}
	if !gw.ReconcileAmount(orderInfo(order), outcome) {
		log.WithFields(logrus.Fields{
			"paid_amount": outcome.PaidAmount,
			"order_total": order.TotalAmount,
		}).Warn("callback amount mismatch")
		return ConfirmResult{Reason: ReasonAmountMismatch, OrderID: order.ID}
	}

	paidAt := s.now()
	meta := outcome.Meta
	if meta == nil {
		meta = map[string]string{}
	}
	meta["provider_txn_id"] = outcome.ProviderTxnID
	meta["response_code"] = outcome.ResponseCode
	updated, err := s.orders.MarkPaid(order.ID, string(provider), outcome.ProviderTxnID, meta, paidAt)
	if err != nil {
		log.WithError(err).Error("mark paid failed")
		return ConfirmResult{Reason: ReasonUnhandled, OrderID: order.ID}
	}
	if !updated {
		// Lost the race against a concurrent delivery of this callback;
		// the winner ran the follow-up steps.
		return ConfirmResult{Reason: ReasonOK, OrderID: order.ID, AlreadyPaid: true}
	}

	// Follow-up steps. Funds are captured, so failures here are flagged
	// for manual resolution instead of blocking the confirmation.
	if tokens := order.SlotTokens(); len(tokens) > 0 {
		if err := s.reservations.Reserve(order.TeacherID, tokens, order.ID); err != nil {
			if repository.IsSlotConflict(err) {
				if s.metrics != nil {
					s.metrics.RecordReservationConflict()
				}
				log.WithError(err).Warn("slot reservation conflict on paid order")
			} else {
				log.WithError(err).Error("slot reservation failed")
			}
		}
	}
	if err := s.scheduler.GenerateForOrder(ctx, order, paidAt); err != nil {
		if s.metrics != nil {
			s.metrics.RecordGenerationFailure()
		}
		log.WithError(err).Error("schedule generation failed")
	}
	if err := s.publisher.PublishOrderPaid(ctx, events.OrderPaidEvent{OrderID: order.ID, PaidAt: paidAt}); err != nil {
		if s.metrics != nil {
			s.metrics.RecordEventPublishFailure()
		}
	}

	log.Info("order confirmed paid")
	return ConfirmResult{Reason: ReasonOK, OrderID: order.ID}
}

func orderInfo(o *models.Order) payment.OrderInfo {
	return payment.OrderInfo{
		ID:       o.ID,
		Gross:    o.GrossAmount,
		Discount: o.DiscountAmount,
		Total:    o.TotalAmount,
		Currency: o.Currency,
		Status:   string(o.Status),
	}
}
