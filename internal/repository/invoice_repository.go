package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-contracts/internal/model"
)

// InvoiceRepo persists invoices.  The (contract_id, month, year) unique key
// is the final guard against duplicates; Create also checks up front so the
// common case fails without a constraint violation.
type InvoiceRepo struct {
	db  *sql.DB
	Now func() time.Time
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db, Now: time.Now} }

// ExistsForPeriod reports whether the contract already has an invoice for
// month/year.
func (r *InvoiceRepo) ExistsForPeriod(ctx context.Context, contractID string, month, year int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM invoices WHERE contract_id = ? AND month = ? AND year = ?",
		contractID, month, year).Scan(&n)
	return n > 0, err
}

// Create stores inv and fills in its ID, Status and CreatedAt.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = model.InvoiceUnpaid
	}
	inv.CreatedAt = r.Now().UTC().Truncate(time.Second)
	lines, err := json.Marshal(inv.Lines)
	if err != nil {
		return fmt.Errorf("encode line_items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM invoices WHERE contract_id = ? AND month = ? AND year = ? FOR UPDATE",
		inv.ContractID, inv.Month, inv.Year).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrInvoiceExists
	}

	const q = `INSERT INTO invoices (id, contract_id, template_id, month, year, due_date, status, line_items, total, keep_readings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, inv.ID, inv.ContractID, inv.TemplateID, inv.Month, inv.Year, inv.DueDate,
		inv.Status, lines, inv.Total, inv.KeepReadings, inv.CreatedAt); err != nil {
		if isDuplicateKey(err) {
			return ErrInvoiceExists
		}
		return err
	}
	return tx.Commit()
}
