package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/chorely/internal/model"
)

type FamilyMemberStore struct {
	db *sqlx.DB
}

func NewFamilyMemberStore(db *sqlx.DB) *FamilyMemberStore {
	return &FamilyMemberStore{db: db}
}

const memberCols = `id, name, avatar, color, role, pin IS NOT NULL AS has_pin, sort_order, created_at, updated_at`

type memberRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Avatar    string    `db:"avatar"`
	Color     string    `db:"color"`
	Role      string    `db:"role"`
	HasPIN    bool      `db:"has_pin"`
	SortOrder int       `db:"sort_order"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r memberRow) toModel() model.FamilyMember {
	return model.FamilyMember{
		ID:        r.ID,
		Name:      r.Name,
		Avatar:    r.Avatar,
		Color:     r.Color,
		Role:      model.Role(r.Role),
		HasPIN:    r.HasPIN,
		SortOrder: r.SortOrder,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *FamilyMemberStore) Create(ctx context.Context, m *model.FamilyMember) (*model.FamilyMember, error) {
	var maxOrder int
	err := s.db.GetContext(ctx, &maxOrder, "SELECT COALESCE(MAX(sort_order), -1) FROM family_members")
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	now := time.Now().UTC()
	var id int64
	err = s.db.GetContext(ctx, &id, s.db.Rebind(
		"INSERT INTO family_members (name, avatar, color, role, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id"),
		m.Name, m.Avatar, m.Color, string(m.Role), maxOrder+1, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *FamilyMemberStore) List(ctx context.Context) ([]model.FamilyMember, error) {
	var rows []memberRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+memberCols+" FROM family_members ORDER BY sort_order, id"); err != nil {
		return nil, fmt.Errorf("query family members: %w", err)
	}

	members := make([]model.FamilyMember, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.toModel())
	}
	return members, nil
}

func (s *FamilyMemberStore) GetByID(ctx context.Context, id int64) (*model.FamilyMember, error) {
	var row memberRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT "+memberCols+" FROM family_members WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query family member: %w", err)
	}
	m := row.toModel()
	return &m, nil
}

func (s *FamilyMemberStore) Update(ctx context.Context, m *model.FamilyMember) (*model.FamilyMember, error) {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE family_members SET name = ?, avatar = ?, color = ?, role = ?, updated_at = ? WHERE id = ?"),
		m.Name, m.Avatar, m.Color, string(m.Role), time.Now().UTC(), m.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update family member: %w", err)
	}
	return s.GetByID(ctx, m.ID)
}

// Delete removes a member. Chores and completions keep the dangling id.
func (s *FamilyMemberStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM family_members WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete family member: %w", err)
	}
	return nil
}

func (s *FamilyMemberStore) SetPIN(ctx context.Context, id int64, hashedPIN string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE family_members SET pin = ? WHERE id = ?"), hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *FamilyMemberStore) ClearPIN(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE family_members SET pin = NULL WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// GetPINHash returns "" when the member has no PIN.
func (s *FamilyMemberStore) GetPINHash(ctx context.Context, id int64) (string, error) {
	var pin sql.NullString
	err := s.db.GetContext(ctx, &pin, s.db.Rebind("SELECT pin FROM family_members WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	return pin.String, nil
}

func (s *FamilyMemberStore) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(
		"SELECT COUNT(*) FROM family_members WHERE name = ? AND id != ?"),
		name, excludeID,
	)
	if err != nil {
		return false, fmt.Errorf("check name exists: %w", err)
	}
	return count > 0, nil
}
