package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage"
)

// CreateProperty persists a new property.
func (t *txStore) CreateProperty(ctx context.Context, p *models.Property) error {
	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO properties (id, name, property_type, address, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.PropertyType, p.Address, p.Active, p.CreatedAt,
	)
	if err != nil {
		return t.writeErr(err, "property")
	}
	return nil
}

// GetProperty retrieves a property by ID.
func (t *txStore) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	p := &models.Property{}
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, name, property_type, address, is_active, created_at FROM properties WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.PropertyType, &p.Address, &p.Active, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

// CreateRoom persists a new room.
func (t *txStore) CreateRoom(ctx context.Context, r *models.Room) error {
	if r.ID == "" {
		r.ID = uuid.Must(uuid.NewV7()).String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO rooms (id, property_id, name, room_type, base_price, capacity, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PropertyID, r.Name, r.RoomType, r.BasePrice.StringFixed(2), r.Capacity, r.Active, r.CreatedAt,
	)
	if err != nil {
		return t.writeErr(err, "room")
	}
	return nil
}

const roomSelect = `SELECT id, property_id, name, room_type, base_price, capacity, is_active, created_at
	FROM rooms WHERE id = ?`

// GetRoom retrieves a room by ID.
func (t *txStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	return t.getRoom(ctx, roomSelect, id)
}

// LockRoom retrieves a room by ID and locks its row.
func (t *txStore) LockRoom(ctx context.Context, id string) (*models.Room, error) {
	return t.getRoom(ctx, t.forUpdate(roomSelect), id)
}

func (t *txStore) getRoom(ctx context.Context, query, id string) (*models.Room, error) {
	r := &models.Room{}
	err := t.tx.QueryRowContext(ctx, query, id).
		Scan(&r.ID, &r.PropertyID, &r.Name, &r.RoomType, &r.BasePrice, &r.Capacity, &r.Active, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return r, nil
}

// CreateUnit persists a new unit.
func (t *txStore) CreateUnit(ctx context.Context, u *models.Unit) error {
	if u.ID == "" {
		u.ID = uuid.Must(uuid.NewV7()).String()
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO units (id, room_id, name, unit_type, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.RoomID, u.Name, u.UnitType, u.Active, u.CreatedAt,
	)
	if err != nil {
		return t.writeErr(err, "unit")
	}
	return nil
}

const unitSelect = `SELECT id, room_id, name, unit_type, is_active, created_at FROM units WHERE id = ?`

// GetUnit retrieves a unit by ID.
func (t *txStore) GetUnit(ctx context.Context, id string) (*models.Unit, error) {
	return t.getUnit(ctx, unitSelect, id)
}

// LockUnit retrieves a unit by ID and locks its row.
func (t *txStore) LockUnit(ctx context.Context, id string) (*models.Unit, error) {
	return t.getUnit(ctx, t.forUpdate(unitSelect), id)
}

// SetUnitActive opens or closes a unit for new bookings.
func (t *txStore) SetUnitActive(ctx context.Context, id string, active bool) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE units SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	return requireAffected(res, "unit", id)
}

func (t *txStore) getUnit(ctx context.Context, query, id string) (*models.Unit, error) {
	u := &models.Unit{}
	err := t.tx.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.RoomID, &u.Name, &u.UnitType, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unit %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return u, nil
}

const planColumns = `id, name, room_id, description, start_date, end_date, price, is_active, created_at`

// CreatePlan persists a new plan.
func (t *txStore) CreatePlan(ctx context.Context, p *models.Plan) error {
	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.RoomID, p.Description, formatDate(p.StartDate), formatDate(p.EndDate),
		p.Price.StringFixed(2), p.Active, p.CreatedAt,
	)
	if err != nil {
		return t.writeErr(err, "plan")
	}
	return nil
}

// GetPlan retrieves a plan by ID.
func (t *txStore) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return p, nil
}

// SetPlanActive activates or deactivates a plan.
func (t *txStore) SetPlanActive(ctx context.Context, id string, active bool) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE plans SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return requireAffected(res, "plan", id)
}

// ListPlansInRange returns the room's active plans intersecting [start, end].
func (t *txStore) ListPlansInRange(ctx context.Context, roomID string, start, end time.Time) ([]*models.Plan, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+planColumns+` FROM plans
		 WHERE room_id = ? AND is_active = ? AND start_date <= ? AND end_date >= ?
		 ORDER BY start_date`,
		roomID, true, formatDate(end), formatDate(start),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}
	return plans, nil
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	p := &models.Plan{}
	var start, end string
	if err := row.Scan(&p.ID, &p.Name, &p.RoomID, &p.Description, &start, &end,
		&p.Price, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if p.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if p.EndDate, err = parseDate(end); err != nil {
		return nil, err
	}
	return p, nil
}

// requireAffected turns an UPDATE/DELETE that touched no row into ErrNotFound.
func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	return nil
}
