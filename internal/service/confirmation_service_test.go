package service

import (
	"context"
	"testing"
	"time"

	"tutorly/internal/events"
	"tutorly/internal/models"
	"tutorly/internal/repository"
	"tutorly/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeOrders struct {
	orders        map[uint]*models.Order
	markPaidCalls int
}

func (f *fakeOrders) GetByID(id uint) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) MarkPaid(id uint, method, ref string, meta map[string]string, paidAt time.Time) (bool, error) {
	f.markPaidCalls++
	o, ok := f.orders[id]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.PaymentMethod = method
	o.PaymentRef = ref
	o.PaidAt = &paidAt
	return true, nil
}

type fakeReserver struct {
	calls int
	err   error
}

func (f *fakeReserver) Reserve(teacherID uint, tokens []string, orderID uint) error {
	f.calls++
	return f.err
}

type fakeScheduler struct {
	calls int
	err   error
}

func (f *fakeScheduler) GenerateForOrder(ctx context.Context, order *models.Order, paidAt time.Time) error {
	f.calls++
	return f.err
}

type fakePublisher struct {
	events []events.OrderPaidEvent
}

func (f *fakePublisher) PublishOrderPaid(_ context.Context, ev events.OrderPaidEvent) error {
	f.events = append(f.events, ev)
	return nil
}

type fakeGateway struct {
	outcome *payment.Outcome
}

func (fakeGateway) Name() payment.Provider { return payment.ProviderVNPay }

func (fakeGateway) CreateCheckout(context.Context, payment.OrderInfo) (*payment.Checkout, error) {
	return nil, nil
}

func (f fakeGateway) VerifyCallback(context.Context, payment.Payload) *payment.Outcome {
	return f.outcome
}

func (fakeGateway) ReconcileAmount(order payment.OrderInfo, o *payment.Outcome) bool {
	return o.PaidAmount == order.Total
}

type confirmFixture struct {
	svc       *ConfirmationService
	orders    *fakeOrders
	reserver  *fakeReserver
	scheduler *fakeScheduler
	publisher *fakePublisher
}

func newConfirmFixture(outcome *payment.Outcome) *confirmFixture {
	order := &models.Order{
		ID:              42,
		TeacherID:       7,
		StudentID:       9,
		Status:          models.OrderStatusPending,
		GrossAmount:     150000,
		DiscountAmount:  30000,
		TotalAmount:     120000,
		Currency:        "VND",
		Lessons:         8,
		LessonLengthMin: 45,
	}
	order.SetSlotTokens([]string{"mon 09:00-09:45", "wed 09:00-09:45"})

	f := &confirmFixture{
		orders:    &fakeOrders{orders: map[uint]*models.Order{42: order}},
		reserver:  &fakeReserver{},
		scheduler: &fakeScheduler{},
		publisher: &fakePublisher{},
	}
	gateways := map[payment.Provider]payment.Gateway{
		payment.ProviderVNPay: fakeGateway{outcome: outcome},
	}
	f.svc = NewConfirmationService(f.orders, f.reserver, f.scheduler, gateways, f.publisher, nil)
	return f
}

func successOutcome() *payment.Outcome {
	return &payment.Outcome{
		Provider:      payment.ProviderVNPay,
		Status:        payment.OutcomeSuccess,
		OrderID:       42,
		PaidAmount:    120000,
		ProviderTxnID: "14350936",
		ResponseCode:  "00",
	}
}

func TestConfirmMarksPaidAndRunsFollowUps(t *testing.T) {
	f := newConfirmFixture(successOutcome())

	res := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	require.Equal(t, ReasonOK, res.Reason)
	assert.False(t, res.AlreadyPaid)
	assert.Equal(t, uint(42), res.OrderID)

	assert.Equal(t, models.OrderStatusPaid, f.orders.orders[42].Status)
	assert.Equal(t, "vnpay", f.orders.orders[42].PaymentMethod)
	assert.Equal(t, 1, f.reserver.calls)
	assert.Equal(t, 1, f.scheduler.calls)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, uint(42), f.publisher.events[0].OrderID)
}

func TestConfirmRepeatDeliveryIsIdempotent(t *testing.T) {
	f := newConfirmFixture(successOutcome())

	first := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	require.Equal(t, ReasonOK, first.Reason)

	second := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	assert.Equal(t, ReasonOK, second.Reason)
	assert.True(t, second.AlreadyPaid)

	// Follow-up steps ran exactly once.
	assert.Equal(t, 1, f.reserver.calls)
	assert.Equal(t, 1, f.scheduler.calls)
	assert.Len(t, f.publisher.events, 1)
}

func TestConfirmAmountMismatchLeavesOrderPending(t *testing.T) {
	out := successOutcome()
	out.PaidAmount = 119999
	f := newConfirmFixture(out)

	res := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	assert.Equal(t, ReasonAmountMismatch, res.Reason)
	assert.Equal(t, models.OrderStatusPending, f.orders.orders[42].Status)
	assert.Zero(t, f.orders.markPaidCalls)
	assert.Zero(t, f.reserver.calls)
}

func TestConfirmDeclined(t *testing.T) {
	out := successOutcome()
	out.Status = payment.OutcomeDeclined
	out.ResponseCode = "24"
	f := newConfirmFixture(out)

	res := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	assert.Equal(t, ReasonGatewayDeclined, res.Reason)
	assert.Equal(t, models.OrderStatusPending, f.orders.orders[42].Status)
}

func TestConfirmBadSignature(t *testing.T) {
	out := successOutcome()
	out.Status = payment.OutcomeBadSignature
	f := newConfirmFixture(out)

	res := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	assert.Equal(t, ReasonBadSignature, res.Reason)
	assert.Zero(t, f.orders.markPaidCalls)
}

func TestConfirmUnknownOrder(t *testing.T) {
	out := successOutcome()
	out.OrderID = 999
	f := newConfirmFixture(out)

	res := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	assert.Equal(t, ReasonNotFound, res.Reason)
}

func TestConfirmUndecodableReference(t *testing.T) {
	out := successOutcome()
	out.OrderID = 0
	f := newConfirmFixture(out)

	res := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	assert.Equal(t, ReasonNotFound, res.Reason)
}

func TestConfirmUnknownProvider(t *testing.T) {
	f := newConfirmFixture(successOutcome())
	res := f.svc.Confirm(context.Background(), payment.ProviderMoMo, payment.Payload{})
	assert.Equal(t, ReasonUnhandled, res.Reason)
}

func TestConfirmSlotConflictStillConfirmsPayment(t *testing.T) {
	f := newConfirmFixture(successOutcome())
	f.reserver.err = &repository.SlotConflictError{TeacherID: 7, Slots: []string{"mon 09:00-09:45"}}

	res := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	assert.Equal(t, ReasonOK, res.Reason)
	assert.Equal(t, models.OrderStatusPaid, f.orders.orders[42].Status)
	// Generation and publishing still run; the hold is flagged for manual
	// resolution instead.
	assert.Equal(t, 1, f.scheduler.calls)
	assert.Len(t, f.publisher.events, 1)
}

func TestConfirmGenerationFailureStillConfirmsPayment(t *testing.T) {
	f := newConfirmFixture(successOutcome())
	f.scheduler.err = assert.AnError

	res := f.svc.Confirm(context.Background(), payment.ProviderVNPay, payment.Payload{})
	assert.Equal(t, ReasonOK, res.Reason)
	assert.Equal(t, models.OrderStatusPaid, f.orders.orders[42].Status)
}
