package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

// The in-memory stores back tests and the demo mode. Records are copied on
// the way in and out so callers never share state with the store.

func cloneChore(c *model.Chore) *model.Chore {
	out := *c
	out.WeeklyDays = slices.Clone(c.WeeklyDays)
	out.RotationMembers = slices.Clone(c.RotationMembers)
	out.NextDue = cloneTime(c.NextDue)
	out.LastCompleted = cloneTime(c.LastCompleted)
	out.AssignedTo = cloneID(c.AssignedTo)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

type InMemoryChoreStore struct {
	chores map[int64]*model.Chore
	nextID int64

	mu sync.RWMutex
}

func NewInMemoryChoreStore() *InMemoryChoreStore {
	return &InMemoryChoreStore{chores: make(map[int64]*model.Chore)}
}

func (s *InMemoryChoreStore) Create(ctx context.Context, c *model.Chore) (*model.Chore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := cloneChore(c)
	stored.ID = s.nextID
	s.chores[stored.ID] = stored
	return cloneChore(stored), nil
}

func (s *InMemoryChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chores[id]
	if !ok {
		return nil, nil
	}
	return cloneChore(c), nil
}

func (s *InMemoryChoreStore) List(ctx context.Context) ([]model.Chore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chores := make([]model.Chore, 0, len(s.chores))
	for _, c := range s.chores {
		chores = append(chores, *cloneChore(c))
	}
	sort.Slice(chores, func(i, j int) bool { return chores[i].ID < chores[j].ID })
	return chores, nil
}

// Update replaces the whole record. Updating a missing chore returns
// (nil, nil).
func (s *InMemoryChoreStore) Update(ctx context.Context, c *model.Chore) (*model.Chore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chores[c.ID]; !ok {
		return nil, nil
	}
	s.chores[c.ID] = cloneChore(c)
	return cloneChore(c), nil
}

func (s *InMemoryChoreStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chores, id)
	return nil
}

type InMemoryCompletionStore struct {
	completions []model.Completion
	nextID      int64

	mu sync.RWMutex
}

func NewInMemoryCompletionStore() *InMemoryCompletionStore {
	return &InMemoryCompletionStore{}
}

func (s *InMemoryCompletionStore) Create(ctx context.Context, c *model.Completion) (*model.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *c
	stored.ID = s.nextID
	stored.CompletedBy = cloneID(c.CompletedBy)
	s.completions = append(s.completions, stored)
	out := stored
	return &out, nil
}

// newestFirst copies the completions matching keep in reverse insertion
// order.
func (s *InMemoryCompletionStore) newestFirst(keep func(model.Completion) bool) []model.Completion {
	out := []model.Completion{}
	for i := len(s.completions) - 1; i >= 0; i-- {
		if keep(s.completions[i]) {
			c := s.completions[i]
			c.CompletedBy = cloneID(c.CompletedBy)
			out = append(out, c)
		}
	}
	return out
}

func (s *InMemoryCompletionStore) List(ctx context.Context) ([]model.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.newestFirst(func(model.Completion) bool { return true }), nil
}

func (s *InMemoryCompletionStore) ListByChore(ctx context.Context, choreID int64) ([]model.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.newestFirst(func(c model.Completion) bool { return c.ChoreID == choreID }), nil
}

func (s *InMemoryCompletionStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completions = nil
	return nil
}

type memoryMember struct {
	member  model.FamilyMember
	pinHash string
}

type InMemoryFamilyMemberStore struct {
	members map[int64]*memoryMember
	nextID  int64

	mu sync.RWMutex
}

func NewInMemoryFamilyMemberStore() *InMemoryFamilyMemberStore {
	return &InMemoryFamilyMemberStore{members: make(map[int64]*memoryMember)}
}

func (mm *memoryMember) view() *model.FamilyMember {
	m := mm.member
	m.HasPIN = mm.pinHash != ""
	return &m
}

func (s *InMemoryFamilyMemberStore) Create(ctx context.Context, m *model.FamilyMember) (*model.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *m
	stored.ID = s.nextID
	stored.SortOrder = len(s.members)
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now

	mm := &memoryMember{member: stored}
	s.members[stored.ID] = mm
	return mm.view(), nil
}

func (s *InMemoryFamilyMemberStore) List(ctx context.Context) ([]model.FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]model.FamilyMember, 0, len(s.members))
	for _, mm := range s.members {
		members = append(members, *mm.view())
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].SortOrder != members[j].SortOrder {
			return members[i].SortOrder < members[j].SortOrder
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}

func (s *InMemoryFamilyMemberStore) GetByID(ctx context.Context, id int64) (*model.FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mm, ok := s.members[id]
	if !ok {
		return nil, nil
	}
	return mm.view(), nil
}

func (s *InMemoryFamilyMemberStore) Update(ctx context.Context, m *model.FamilyMember) (*model.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mm, ok := s.members[m.ID]
	if !ok {
		return nil, nil
	}
	mm.member.Name = m.Name
	mm.member.Avatar = m.Avatar
	mm.member.Color = m.Color
	mm.member.Role = m.Role
	mm.member.UpdatedAt = time.Now().UTC()
	return mm.view(), nil
}

func (s *InMemoryFamilyMemberStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.members, id)
	return nil
}

func (s *InMemoryFamilyMemberStore) SetPIN(ctx context.Context, id int64, hashedPIN string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mm, ok := s.members[id]; ok {
		mm.pinHash = hashedPIN
	}
	return nil
}

func (s *InMemoryFamilyMemberStore) ClearPIN(ctx context.Context, id int64) error {
	return s.SetPIN(ctx, id, "")
}

// GetPINHash returns "" when no PIN is set and ErrNotFound for a missing
// member.
func (s *InMemoryFamilyMemberStore) GetPINHash(ctx context.Context, id int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mm, ok := s.members[id]
	if !ok {
		return "", ErrNotFound
	}
	return mm.pinHash, nil
}

func (s *InMemoryFamilyMemberStore) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, mm := range s.members {
		if id != excludeID && mm.member.Name == name {
			return true, nil
		}
	}
	return false, nil
}
