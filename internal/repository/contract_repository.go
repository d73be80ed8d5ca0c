package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-contracts/internal/billing"
	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/model"
)

// ContractRepo persists contracts and their child rows.  Every write that
// touches more than one table runs in a transaction and locks the contract
// row first.
type ContractRepo struct {
	db  *sql.DB
	Now func() time.Time
}

// NewContractRepo returns a ContractRepo bound to db.
func NewContractRepo(db *sql.DB) *ContractRepo {
	return &ContractRepo{db: db, Now: time.Now}
}

// ListFilter selects one page of contracts visible to a user.
type ListFilter struct {
	UserID uint64
	Role   string
	Status contract.Status
	Page   int
	Limit  int
}

// contractRow is the locked head of a contract used by write paths.
type contractRow struct {
	landlordID uint64
	tenantID   sql.NullInt64
	status     contract.Status
	info       []byte
}

func (row contractRow) isParty(userID uint64) bool {
	return row.landlordID == userID || (row.tenantID.Valid && uint64(row.tenantID.Int64) == userID)
}

// partyOf names the side userID acts for; zero is the system.
func (row contractRow) partyOf(userID uint64) contract.Party {
	switch {
	case userID == 0:
		return contract.PartySystem
	case row.landlordID == userID:
		return contract.PartyLandlord
	}
	return contract.PartyTenant
}

// Create inserts a draft contract with its services and first history
// entry.  ID, Status, timestamps and StatusHistory are filled in on c.
func (r *ContractRepo) Create(ctx context.Context, c *model.Contract) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = contract.StatusDraft
	}
	now := r.Now().UTC().Truncate(time.Second)
	c.CreatedAt, c.UpdatedAt = now, now

	info, err := json.Marshal(c.ContractInfo)
	if err != nil {
		return fmt.Errorf("encode contract_info: %w", err)
	}
	end, err := billing.ParseDate(c.ContractInfo.EndDate)
	if err != nil {
		return fmt.Errorf("contract end date: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const ins = `INSERT INTO contracts (id, landlord_id, tenant_id, room_id, status, contract_info, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins, c.ID, c.LandlordID, nullableID(c.TenantID), c.RoomID, c.Status, info, end, now, now); err != nil {
		return err
	}
	for i := range c.CustomServices {
		if err := upsertServiceTx(ctx, tx, c.ID, &c.CustomServices[i]); err != nil {
			return err
		}
	}
	if err := appendHistoryTx(ctx, tx, c.ID, c.Status, "", now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.StatusHistory = []model.StatusEntry{{Status: c.Status, Date: now}}
	if c.SignedContractImages == nil {
		c.SignedContractImages = []string{}
	}
	if c.CustomServices == nil {
		c.CustomServices = []contract.CustomService{}
	}
	return nil
}

// GetByID loads the full contract: services, status history and images.
func (r *ContractRepo) GetByID(ctx context.Context, id string) (model.Contract, error) {
	const q = `SELECT id, landlord_id, tenant_id, room_id, status, contract_info, contract_pdf_url, created_at, updated_at
		FROM contracts WHERE id = ?`
	c, err := scanContract(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}

	if c.CustomServices, err = queryServices(ctx, r.db,
		"SELECT id, name, price, price_type, description FROM contract_services WHERE contract_id = ? ORDER BY name", id); err != nil {
		return c, err
	}
	if c.StatusHistory, err = r.history(ctx, id); err != nil {
		return c, err
	}
	if c.SignedContractImages, err = r.images(ctx, id); err != nil {
		return c, err
	}
	return c, nil
}

// GetForUser is GetByID restricted to the contract's landlord and tenant.
func (r *ContractRepo) GetForUser(ctx context.Context, id string, userID uint64) (model.Contract, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return c, err
	}
	if c.LandlordID != userID && c.TenantID != userID {
		return model.Contract{}, ErrForbidden
	}
	return c, nil
}

// List returns one page of contract heads, newest first.  Landlords see the
// contracts they issued, tenants the ones they signed.
func (r *ContractRepo) List(ctx context.Context, f ListFilter) (model.ContractPage, error) {
	page := model.ContractPage{Items: []model.Contract{}, Page: f.Page, Limit: f.Limit}

	col := "landlord_id"
	if f.Role == contract.RoleTenant {
		col = "tenant_id"
	}
	where := col + " = ?"
	args := []any{f.UserID}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, f.Status)
	}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contracts WHERE "+where, args...).Scan(&page.Total); err != nil {
		return page, err
	}
	if page.Total == 0 {
		return page, nil
	}

	q := `SELECT id, landlord_id, tenant_id, room_id, status, contract_info, contract_pdf_url, created_at, updated_at
		FROM contracts WHERE ` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return page, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, c)
	}
	return page, rows.Err()
}

// UpdateTerms changes rules, additional terms and services of a contract
// owned by landlordID.  Removals are applied before upserts so a service
// removed and re-added under the same name ends up present.
func (r *ContractRepo) UpdateTerms(ctx context.Context, id string, landlordID uint64, rules, additionalTerms *string, diff contract.ServiceDiff) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row, err := lockContractTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if row.landlordID != landlordID {
		return ErrForbidden
	}

	now := r.Now().UTC().Truncate(time.Second)
	if rules != nil || additionalTerms != nil {
		var info model.ContractInfo
		if err := json.Unmarshal(row.info, &info); err != nil {
			return fmt.Errorf("decode contract_info: %w", err)
		}
		if rules != nil {
			info.Rules = *rules
		}
		if additionalTerms != nil {
			info.AdditionalTerms = *additionalTerms
		}
		raw, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("encode contract_info: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE contracts SET contract_info = ?, updated_at = ? WHERE id = ?", raw, now, id); err != nil {
			return err
		}
	} else if !diff.Empty() {
		if _, err := tx.ExecContext(ctx, "UPDATE contracts SET updated_at = ? WHERE id = ?", now, id); err != nil {
			return err
		}
	}

	for _, s := range diff.Remove {
		if s.ID != "" {
			_, err = tx.ExecContext(ctx, "DELETE FROM contract_services WHERE contract_id = ? AND id = ?", id, s.ID)
		} else {
			_, err = tx.ExecContext(ctx, "DELETE FROM contract_services WHERE contract_id = ? AND name = ?", id, strings.TrimSpace(s.Name))
		}
		if err != nil {
			return err
		}
	}
	owned, err := serviceIDsTx(ctx, tx, id, len(diff.Upsert) > 0)
	if err != nil {
		return err
	}
	for i := range diff.Upsert {
		if !owned[diff.Upsert[i].ID] {
			diff.Upsert[i].ID = ""
		}
		if err := upsertServiceTx(ctx, tx, id, &diff.Upsert[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Transition moves a contract to status to and appends a history entry.
// actorID must be the landlord or the tenant, allowed on that edge; zero
// means the system.
func (r *ContractRepo) Transition(ctx context.Context, id string, actorID uint64, to contract.Status, note string) (contract.Status, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	row, err := lockContractTx(ctx, tx, id)
	if err != nil {
		return "", err
	}
	if actorID != 0 && !row.isParty(actorID) {
		return row.status, ErrForbidden
	}
	if !contract.CanTransition(row.status, to) {
		return row.status, ErrInvalidTransition
	}
	if !contract.CanTransitionAs(row.status, to, row.partyOf(actorID)) {
		return row.status, ErrForbidden
	}

	now := r.Now().UTC().Truncate(time.Second)
	if _, err := tx.ExecContext(ctx, "UPDATE contracts SET status = ?, updated_at = ? WHERE id = ?", to, now, id); err != nil {
		return row.status, err
	}
	if err := appendHistoryTx(ctx, tx, id, to, note, now); err != nil {
		return row.status, err
	}
	return row.status, tx.Commit()
}

// AddImages attaches signed-contract scans while the contract awaits
// signature or approval.
func (r *ContractRepo) AddImages(ctx context.Context, id string, userID uint64, urls []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row, err := lockContractTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if !row.isParty(userID) {
		return ErrForbidden
	}
	if !contract.CanUploadImages(row.status) {
		return ErrConflict
	}
	now := r.Now().UTC().Truncate(time.Second)
	for _, u := range urls {
		if _, err := tx.ExecContext(ctx, "INSERT INTO contract_images (contract_id, url, created_at) VALUES (?, ?, ?)", id, u, now); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "UPDATE contracts SET updated_at = ? WHERE id = ?", now, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SetPDFURL stores the generated PDF location.
func (r *ContractRepo) SetPDFURL(ctx context.Context, id, url string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE contracts SET contract_pdf_url = ?, updated_at = ? WHERE id = ?",
		url, r.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpiredIDs lists active contracts whose end date is before today.
func (r *ContractRepo) ExpiredIDs(ctx context.Context, today time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM contracts WHERE status = ? AND end_date < ? ORDER BY end_date",
		contract.StatusActive, today.Format(billing.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ContractRepo) history(ctx context.Context, id string) ([]model.StatusEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, note, created_at FROM contract_status_history WHERE contract_id = ? ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.StatusEntry{}
	for rows.Next() {
		var e model.StatusEntry
		if err := rows.Scan(&e.Status, &e.Note, &e.Date); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ContractRepo) images(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT url FROM contract_images WHERE contract_id = ? ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(s rowScanner) (model.Contract, error) {
	var (
		c      model.Contract
		tenant sql.NullInt64
		info   []byte
		pdf    sql.NullString
	)
	if err := s.Scan(&c.ID, &c.LandlordID, &tenant, &c.RoomID, &c.Status, &info, &pdf, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return c, err
	}
	if tenant.Valid {
		c.TenantID = uint64(tenant.Int64)
	}
	c.ContractPDFURL = pdf.String
	if err := json.Unmarshal(info, &c.ContractInfo); err != nil {
		return c, fmt.Errorf("decode contract_info: %w", err)
	}
	c.CustomServices = []contract.CustomService{}
	c.StatusHistory = []model.StatusEntry{}
	c.SignedContractImages = []string{}
	return c, nil
}

func lockContractTx(ctx context.Context, tx *sql.Tx, id string) (contractRow, error) {
	var row contractRow
	err := tx.QueryRowContext(ctx,
		"SELECT landlord_id, tenant_id, status, contract_info FROM contracts WHERE id = ? FOR UPDATE", id).
		Scan(&row.landlordID, &row.tenantID, &row.status, &row.info)
	if errors.Is(err, sql.ErrNoRows) {
		return row, ErrNotFound
	}
	return row, err
}

func appendHistoryTx(ctx context.Context, tx *sql.Tx, id string, status contract.Status, note string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO contract_status_history (contract_id, status, note, created_at) VALUES (?, ?, ?, ?)",
		id, status, note, at)
	return err
}

// serviceIDsTx returns the ids of the services stored on the contract.
// Upserts only keep ids from this set; anything else is inserted as new.
func serviceIDsTx(ctx context.Context, tx *sql.Tx, contractID string, needed bool) (map[string]bool, error) {
	ids := map[string]bool{}
	if !needed {
		return ids, nil
	}
	rows, err := tx.QueryContext(ctx, "SELECT id FROM contract_services WHERE contract_id = ? FOR UPDATE", contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		ids[sid] = true
	}
	return ids, rows.Err()
}

// upsertServiceTx inserts s or, when a row with the same id or name exists
// on the contract, updates it in place.  New rows get a fresh id.
func upsertServiceTx(ctx context.Context, tx *sql.Tx, contractID string, s *contract.CustomService) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Name = strings.TrimSpace(s.Name)
	const q = `INSERT INTO contract_services (id, contract_id, name, price, price_type, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), price = VALUES(price), price_type = VALUES(price_type), description = VALUES(description)`
	_, err := tx.ExecContext(ctx, q, s.ID, contractID, s.Name, s.Price, s.PriceType, s.Description)
	return err
}

func nullableID(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}
