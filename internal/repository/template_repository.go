package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/rental-contracts/internal/model"
)

// TemplateRepo reads invoice templates.
type TemplateRepo struct {
	db *sql.DB
}

func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

// GetByID loads a template.  Templates belong to one landlord; callers check
// LandlordID.
func (r *TemplateRepo) GetByID(ctx context.Context, id string) (model.InvoiceTemplate, error) {
	const q = `SELECT id, landlord_id, name, line_items, include_rent, include_services, created_at
		FROM invoice_templates WHERE id = ?`
	var (
		t     model.InvoiceTemplate
		lines []byte
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.LandlordID, &t.Name, &lines, &t.IncludeRent, &t.IncludeServices, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(lines, &t.Lines); err != nil {
		return t, fmt.Errorf("decode line_items: %w", err)
	}
	return t, nil
}
