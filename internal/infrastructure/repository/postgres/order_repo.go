package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecomkit/g2apay-gateway/internal/domain/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) order.Repository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) GetByGuid(ctx context.Context, guid uuid.UUID) (*order.Order, error) {
	const query = `
		SELECT id, guid, store_id, order_total::text, currency_code,
		       payment_status, capture_transaction_id, refunded_amount::text, paid_date, created_at
		FROM orders
		WHERE guid = $1`

	var (
		o           order.Order
		pgGuid      pgtype.UUID
		totalStr    string
		refundedStr string
		paidDate    pgtype.Timestamp
		createdAt   pgtype.Timestamp
	)
	row := r.db.QueryRow(ctx, query, uuidToPgtype(guid))
	err := row.Scan(&o.ID, &pgGuid, &o.StoreID, &totalStr, &o.CurrencyCode,
		&o.PaymentStatus, &o.CaptureTransactionID, &refundedStr, &paidDate, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by guid: %w", err)
	}

	if o.Guid, err = pgtypeToUUID(pgGuid); err != nil {
		return nil, fmt.Errorf("failed to read order guid: %w", err)
	}
	if o.OrderTotal, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("failed to read order total: %w", err)
	}
	if o.RefundedAmount, err = decimal.NewFromString(refundedStr); err != nil {
		return nil, fmt.Errorf("failed to read refunded amount: %w", err)
	}
	o.PaidDate = pgtypeToTimePtr(paidDate)
	o.CreatedAt = pgtypeToTime(createdAt)

	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.Notes, err = r.loadNotes(ctx, o.ID); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID int64) ([]order.Item, error) {
	const query = `
		SELECT id, sku, name, unit_price::text, quantity, amount::text, url
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var (
			item         order.Item
			unitPriceStr string
			amountStr    string
		)
		if err := rows.Scan(&item.ID, &item.Sku, &item.Name, &unitPriceStr, &item.Quantity, &amountStr, &item.Url); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPriceStr); err != nil {
			return nil, fmt.Errorf("failed to read item unit price: %w", err)
		}
		if item.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to read item amount: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) loadNotes(ctx context.Context, orderID int64) ([]order.Note, error) {
	const query = `
		SELECT id, note, display_to_customer, created_at
		FROM order_notes
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order notes: %w", err)
	}
	defer rows.Close()

	var notes []order.Note
	for rows.Next() {
		var (
			note      order.Note
			createdAt pgtype.Timestamp
		)
		if err := rows.Scan(&note.ID, &note.Note, &note.DisplayToCustomer, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan order note: %w", err)
		}
		note.CreatedAt = pgtypeToTime(createdAt)
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// Update persists payment fields and unsaved notes in one transaction.
// The order row is locked for the duration so two notifications racing
// on the same order serialize at the database.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin order update: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, o.ID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}

	const update = `
		UPDATE orders
		SET payment_status = $2,
		    capture_transaction_id = $3,
		    refunded_amount = $4,
		    paid_date = $5
		WHERE id = $1`
	_, err = tx.Exec(ctx, update, o.ID, o.PaymentStatus, o.CaptureTransactionID,
		o.RefundedAmount.StringFixed(2), timePtrToPgtype(o.PaidDate))
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	const insertNote = `
		INSERT INTO order_notes (order_id, note, display_to_customer, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	for i := range o.Notes {
		if o.Notes[i].ID != 0 {
			continue
		}
		note := &o.Notes[i]
		err = tx.QueryRow(ctx, insertNote, o.ID, note.Note, note.DisplayToCustomer,
			timePtrToPgtype(&note.CreatedAt)).Scan(&note.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order note: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order update: %w", err)
	}
	return nil
}
