package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment state of an order. Transitions are
// applied through the order processing service, never directly.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusVoided            PaymentStatus = "voided"
)

type Order struct {
	ID      int64
	Guid    uuid.UUID
	StoreID int

	OrderTotal   decimal.Decimal
	CurrencyCode string

	PaymentStatus        PaymentStatus
	CaptureTransactionID string
	RefundedAmount       decimal.Decimal
	PaidDate             *time.Time

	Items []Item
	Notes []Note

	CreatedAt time.Time
}

// Item is a purchased order line.
type Item struct {
	ID        int64
	Sku       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	// Amount is the total line price (quantity x unit price, tax included).
	Amount decimal.Decimal
	// Url is the public product page.
	Url string
}

// Note is an order audit record. Notes with DisplayToCustomer false are
// internal only.
type Note struct {
	ID                int64
	Note              string
	DisplayToCustomer bool
	CreatedAt         time.Time
}

// AddNote appends a note to the in-memory order. Persistence happens on
// the next repository Update.
func (o *Order) AddNote(note string, displayToCustomer bool, at time.Time) {
	o.Notes = append(o.Notes, Note{
		Note:              note,
		DisplayToCustomer: displayToCustomer,
		CreatedAt:         at,
	})
}

// ItemsTotal is the sum of all line amounts, before any adjustment for
// shipping, fees, taxes or discounts.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	return total
}
