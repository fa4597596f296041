package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMemberNameEmpty = errors.New("name is required")
	ErrInvalidColor    = errors.New("color must be a hex color (e.g. #FF0000)")
	ErrInvalidRole     = errors.New("role must be parent or child")
)

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

const (
	DefaultMemberColor  = "#4285f4"
	DefaultMemberAvatar = "👨"
)

type FamilyMember struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Color     string    `json:"color"`
	Role      Role      `json:"role"`
	HasPIN    bool      `json:"has_pin"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize applies defaults and validates the member.
func (m *FamilyMember) Normalize() error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return ErrMemberNameEmpty
	}
	if m.Color == "" {
		m.Color = DefaultMemberColor
	}
	if !hexColorRegexp.MatchString(m.Color) {
		return ErrInvalidColor
	}
	if m.Avatar == "" {
		m.Avatar = DefaultMemberAvatar
	}
	if m.Role == "" {
		m.Role = RoleParent
	}
	if m.Role != RoleParent && m.Role != RoleChild {
		return ErrInvalidRole
	}
	return nil
}
