package g2apay

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/ecomkit/g2apay-gateway/internal/domain/order"
	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/ecomkit/g2apay-gateway/internal/services/orderproc"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const testSecret = "test-secret"

type memoryOrderRepo struct {
	orders map[uuid.UUID]*order.Order
	nextID int64
}

func newMemoryOrderRepo(orders ...*order.Order) *memoryOrderRepo {
	repo := &memoryOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
	for _, o := range orders {
		repo.orders[o.Guid] = o
	}
	return repo
}

func (r *memoryOrderRepo) GetByGuid(_ context.Context, guid uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[guid]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (r *memoryOrderRepo) Update(_ context.Context, o *order.Order) error {
	if _, ok := r.orders[o.Guid]; !ok {
		return order.ErrNotFound
	}
	for i := range o.Notes {
		if o.Notes[i].ID == 0 {
			r.nextID++
			o.Notes[i].ID = r.nextID
		}
	}
	r.orders[o.Guid] = o
	return nil
}

type staticSettings struct {
	cfg settings.PaymentSettings
}

func (s staticSettings) Load(context.Context, int) (settings.PaymentSettings, error) {
	return s.cfg, nil
}

func newTestReconciler(orders ...*order.Order) (*Reconciler, *memoryOrderRepo) {
	repo := newMemoryOrderRepo(orders...)
	proc := orderproc.NewService(repo, logger.Noop())
	provider := staticSettings{cfg: settings.PaymentSettings{SecretKey: testSecret}}
	return NewReconciler(repo, proc, provider, logger.Noop()), repo
}

func pendingOrder(total string) *order.Order {
	return &order.Order{
		ID:             7,
		Guid:           uuid.New(),
		OrderTotal:     decimal.RequireFromString(total),
		CurrencyCode:   "USD",
		PaymentStatus:  order.PaymentStatusPending,
		RefundedAmount: decimal.Zero,
	}
}

func notification(o *order.Order, transactionID, amount, status string) url.Values {
	form := url.Values{}
	form.Set("userOrderId", o.Guid.String())
	form.Set("amount", amount)
	form.Set("transactionId", transactionID)
	form.Set("status", status)
	form.Set("hash", NotificationHash(transactionID, o.Guid.String(), amount, testSecret))
	return form
}

func TestReconciler_CompleteMarksOrderPaid(t *testing.T) {
	o := pendingOrder("25.00")
	r, _ := newTestReconciler(o)

	got := r.Handle(context.Background(), notification(o, "TX1", "25.00", "complete"), 0)

	if got != OutcomeAcceptedPaid {
		t.Fatalf("Handle() = %s, want %s", got, OutcomeAcceptedPaid)
	}
	if o.PaymentStatus != order.PaymentStatusPaid {
		t.Errorf("status = %s, want %s", o.PaymentStatus, order.PaymentStatusPaid)
	}
	if o.CaptureTransactionID != "TX1" {
		t.Errorf("CaptureTransactionID = %q, want TX1", o.CaptureTransactionID)
	}
	if len(o.Notes) != 1 {
		t.Fatalf("notes = %d, want 1 audit note", len(o.Notes))
	}
	if o.Notes[0].DisplayToCustomer {
		t.Errorf("audit note must be internal")
	}
	for _, field := range []string{"userOrderId:", "amount: 25.00", "transactionId: TX1", "status: complete", "hash:"} {
		if !strings.Contains(o.Notes[0].Note, field) {
			t.Errorf("audit note missing %q:\n%s", field, o.Notes[0].Note)
		}
	}
}

func TestReconciler_CompleteReplayIsNoOp(t *testing.T) {
	o := pendingOrder("25.00")
	r, _ := newTestReconciler(o)
	form := notification(o, "TX1", "25.00", "complete")

	if got := r.Handle(context.Background(), form, 0); got != OutcomeAcceptedPaid {
		t.Fatalf("first Handle() = %s, want %s", got, OutcomeAcceptedPaid)
	}
	firstPaidDate := o.PaidDate

	// Byte-for-byte replay: the capability re-check prevents a second
	// paid transition, but a new audit note is still recorded.
	if got := r.Handle(context.Background(), form, 0); got != OutcomeAcceptedPaid {
		t.Fatalf("replayed Handle() = %s, want %s", got, OutcomeAcceptedPaid)
	}
	if o.PaymentStatus != order.PaymentStatusPaid {
		t.Errorf("status = %s, want %s", o.PaymentStatus, order.PaymentStatusPaid)
	}
	if o.PaidDate != firstPaidDate {
		t.Errorf("paid date changed on replay")
	}
	if len(o.Notes) != 2 {
		t.Errorf("notes = %d, want 2 after replay", len(o.Notes))
	}
}

func TestReconciler_StatusCaseInsensitive(t *testing.T) {
	o := pendingOrder("25.00")
	r, _ := newTestReconciler(o)

	got := r.Handle(context.Background(), notification(o, "TX1", "25.00", "COMPLETE"), 0)
	if got != OutcomeAcceptedPaid {
		t.Fatalf("Handle() = %s, want %s", got, OutcomeAcceptedPaid)
	}
	if o.PaymentStatus != order.PaymentStatusPaid {
		t.Errorf("status = %s, want %s", o.PaymentStatus, order.PaymentStatusPaid)
	}
}

func TestReconciler_PartialRefund(t *testing.T) {
	o := pendingOrder("25.00")
	o.PaymentStatus = order.PaymentStatusPaid
	r, _ := newTestReconciler(o)

	form := notification(o, "TX1", "25.00", "partial_refunded")
	form.Set("refundedAmount", "5.00")

	if got := r.Handle(context.Background(), form, 0); got != OutcomeAcceptedPartialRefund {
		t.Fatalf("Handle() = %s, want %s", got, OutcomeAcceptedPartialRefund)
	}
	if o.PaymentStatus != order.PaymentStatusPartiallyRefunded {
		t.Errorf("status = %s, want %s", o.PaymentStatus, order.PaymentStatusPartiallyRefunded)
	}
	if !o.RefundedAmount.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("RefundedAmount = %s, want 5.00", o.RefundedAmount)
	}
}

func TestReconciler_PartialRefundUnparsableAmountIsNoOp(t *testing.T) {
	o := pendingOrder("25.00")
	o.PaymentStatus = order.PaymentStatusPaid
	r, _ := newTestReconciler(o)

	form := notification(o, "TX1", "25.00", "partial_refunded")
	form.Set("refundedAmount", "not-a-number")

	if got := r.Handle(context.Background(), form, 0); got != OutcomeAcceptedPartialRefund {
		t.Fatalf("Handle() = %s, want %s", got, OutcomeAcceptedPartialRefund)
	}
	if o.PaymentStatus != order.PaymentStatusPaid {
		t.Errorf("status = %s, want unchanged %s", o.PaymentStatus, order.PaymentStatusPaid)
	}
}

func TestReconciler_FullRefund(t *testing.T) {
	o := pendingOrder("25.00")
	o.PaymentStatus = order.PaymentStatusPaid
	r, _ := newTestReconciler(o)

	if got := r.Handle(context.Background(), notification(o, "TX1", "25.00", "refunded"), 0); got != OutcomeAcceptedRefund {
		t.Fatalf("Handle() = %s, want %s", got, OutcomeAcceptedRefund)
	}
	if o.PaymentStatus != order.PaymentStatusRefunded {
		t.Errorf("status = %s, want %s", o.PaymentStatus, order.PaymentStatusRefunded)
	}
}

func TestReconciler_PendingIsAcceptedWithoutChange(t *testing.T) {
	o := pendingOrder("25.00")
	r, _ := newTestReconciler(o)

	if got := r.Handle(context.Background(), notification(o, "TX1", "25.00", "pending"), 0); got != OutcomeAcceptedPending {
		t.Fatalf("Handle() = %s, want %s", got, OutcomeAcceptedPending)
	}
	if o.PaymentStatus != order.PaymentStatusPending {
		t.Errorf("status = %s, want unchanged %s", o.PaymentStatus, order.PaymentStatusPending)
	}
	// The notification is authenticated, so the audit note is still
	// recorded.
	if len(o.Notes) != 1 {
		t.Errorf("notes = %d, want 1", len(o.Notes))
	}
}

func TestReconciler_UnknownStatus(t *testing.T) {
	o := pendingOrder("25.00")
	r, _ := newTestReconciler(o)

	if got := r.Handle(context.Background(), notification(o, "TX1", "25.00", "bogus"), 0); got != OutcomeRejectedUnknownStatus {
		t.Fatalf("Handle() = %s, want %s", got, OutcomeRejectedUnknownStatus)
	}
	if o.PaymentStatus != order.PaymentStatusPending {
		t.Errorf("status = %s, want unchanged %s", o.PaymentStatus, order.PaymentStatusPending)
	}
}

func TestReconciler_ValidationRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *order.Order, form url.Values)
		want   Outcome
	}{
		{
			name:   "malformed order id",
			mutate: func(o *order.Order, form url.Values) { form.Set("userOrderId", "not-a-uuid") },
			want:   OutcomeRejectedUnknownOrder,
		},
		{
			name: "well-formed but unknown order id",
			mutate: func(o *order.Order, form url.Values) {
				other := uuid.New().String()
				form.Set("userOrderId", other)
				form.Set("hash", NotificationHash("TX1", other, "25.00", testSecret))
			},
			want: OutcomeRejectedUnknownOrder,
		},
		{
			name: "amount mismatch",
			mutate: func(o *order.Order, form url.Values) {
				form.Set("amount", "26.00")
				form.Set("hash", NotificationHash("TX1", o.Guid.String(), "26.00", testSecret))
			},
			want: OutcomeRejectedAmountMismatch,
		},
		{
			name:   "unparsable amount",
			mutate: func(o *order.Order, form url.Values) { form.Set("amount", "abc") },
			want:   OutcomeRejectedAmountMismatch,
		},
		{
			name: "tampered hash",
			mutate: func(o *order.Order, form url.Values) {
				hash := form.Get("hash")
				flipped := "0"
				if hash[0] == '0' {
					flipped = "1"
				}
				form.Set("hash", flipped+hash[1:])
			},
			want: OutcomeRejectedInvalidSignature,
		},
		{
			name: "uppercased hash",
			mutate: func(o *order.Order, form url.Values) {
				form.Set("hash", strings.ToUpper(form.Get("hash")))
			},
			want: OutcomeRejectedInvalidSignature,
		},
		{
			name:   "missing hash",
			mutate: func(o *order.Order, form url.Values) { form.Del("hash") },
			want:   OutcomeRejectedInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := pendingOrder("25.00")
			r, _ := newTestReconciler(o)
			form := notification(o, "TX1", "25.00", "complete")
			tt.mutate(o, form)

			got := r.Handle(context.Background(), form, 0)
			if got != tt.want {
				t.Errorf("Handle() = %s, want %s", got, tt.want)
			}
			if got.Accepted() {
				t.Errorf("rejection outcome reported as accepted")
			}
			if o.PaymentStatus != order.PaymentStatusPending {
				t.Errorf("rejected notification mutated the order: status = %s", o.PaymentStatus)
			}
			if len(o.Notes) != 0 {
				t.Errorf("rejected notification recorded an audit note")
			}
		})
	}
}

func TestReconciler_AmountRounding(t *testing.T) {
	tests := []struct {
		name       string
		orderTotal string
		amount     string
		want       Outcome
	}{
		// Both sides round to 2 decimals before comparing.
		{"half rounds away from total", "10.005", "10.00", OutcomeRejectedAmountMismatch},
		{"half rounds to match", "10.005", "10.01", OutcomeAcceptedPending},
		{"sub-half truncates to match", "10.004", "10.00", OutcomeAcceptedPending},
		{"exact match", "10.00", "10.00", OutcomeAcceptedPending},
		{"raw strings differ but values match", "10.00", "10.0", OutcomeAcceptedPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := pendingOrder(tt.orderTotal)
			r, _ := newTestReconciler(o)
			form := notification(o, "TX1", tt.amount, "pending")

			if got := r.Handle(context.Background(), form, 0); got != tt.want {
				t.Errorf("Handle(total=%s, amount=%s) = %s, want %s", tt.orderTotal, tt.amount, got, tt.want)
			}
		})
	}
}

func TestReconciler_ConcurrentDuplicatesConverge(t *testing.T) {
	o := pendingOrder("25.00")
	r, repo := newTestReconciler(o)
	form := notification(o, "TX1", "25.00", "complete")

	const deliveries = 8
	done := make(chan Outcome, deliveries)
	for i := 0; i < deliveries; i++ {
		go func() {
			done <- r.Handle(context.Background(), form, 0)
		}()
	}
	for i := 0; i < deliveries; i++ {
		if got := <-done; got != OutcomeAcceptedPaid {
			t.Errorf("Handle() = %s, want %s", got, OutcomeAcceptedPaid)
		}
	}

	final, err := repo.GetByGuid(context.Background(), o.Guid)
	if err != nil {
		t.Fatalf("GetByGuid() error = %v", err)
	}
	if final.PaymentStatus != order.PaymentStatusPaid {
		t.Errorf("status = %s, want %s", final.PaymentStatus, order.PaymentStatusPaid)
	}
	if final.CaptureTransactionID != "TX1" {
		t.Errorf("CaptureTransactionID = %q, want TX1", final.CaptureTransactionID)
	}
	if len(final.Notes) != deliveries {
		t.Errorf("notes = %d, want one audit note per delivery", len(final.Notes))
	}
}

func TestOutcome_Accepted(t *testing.T) {
	accepted := []Outcome{OutcomeAcceptedPaid, OutcomeAcceptedPartialRefund, OutcomeAcceptedRefund, OutcomeAcceptedPending}
	for _, o := range accepted {
		if !o.Accepted() {
			t.Errorf("%s.Accepted() = false, want true", o)
		}
	}
	rejected := []Outcome{OutcomeRejectedInvalidSignature, OutcomeRejectedUnknownOrder, OutcomeRejectedAmountMismatch, OutcomeRejectedUnknownStatus}
	for _, o := range rejected {
		if o.Accepted() {
			t.Errorf("%s.Accepted() = true, want false", o)
		}
	}
}
