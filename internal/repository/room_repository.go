package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/model"
)

// RoomRepo reads rooms and their service catalog.
type RoomRepo struct {
	db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// GetByID loads a room with its services.
func (r *RoomRepo) GetByID(ctx context.Context, id string) (model.Room, error) {
	const q = `SELECT id, landlord_id, name, rent_price, deposit, max_occupancy, service_fee, furniture, amenities, created_at
		FROM rooms WHERE id = ?`
	var (
		room                    model.Room
		fee, furniture, amenity []byte
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&room.ID, &room.LandlordID, &room.Name, &room.RentPrice, &room.Deposit, &room.MaxOccupancy,
		&fee, &furniture, &amenity, &room.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return room, ErrNotFound
	}
	if err != nil {
		return room, err
	}
	if err := unmarshalColumns(map[string]columnTarget{
		"service_fee": {fee, &room.ServiceFee},
		"furniture":   {furniture, &room.Furniture},
		"amenities":   {amenity, &room.Amenities},
	}); err != nil {
		return room, err
	}

	services, err := queryServices(ctx, r.db,
		"SELECT id, name, price, price_type, description FROM room_services WHERE room_id = ? ORDER BY name", id)
	if err != nil {
		return room, err
	}
	room.CustomServices = services
	return room, nil
}

type columnTarget struct {
	raw []byte
	dst any
}

func unmarshalColumns(cols map[string]columnTarget) error {
	for name, c := range cols {
		if len(c.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(c.raw, c.dst); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryServices(ctx context.Context, db queryer, q string, args ...any) ([]contract.CustomService, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []contract.CustomService{}
	for rows.Next() {
		var (
			s    contract.CustomService
			desc sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.PriceType, &desc); err != nil {
			return nil, err
		}
		s.Description = desc.String
		out = append(out, s)
	}
	return out, rows.Err()
}
