package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/flight-auth/internal/domain"
)

// MemoryStore is an in-process credential store implementing both
// UserRepository and AdminRepository. Records are copied on the way in and
// out so callers never share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	admins      map[string]domain.Admin
	adminEmails map[string]string
	adminPhones map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		admins:      make(map[string]domain.Admin),
		adminEmails: make(map[string]string),
		adminPhones: make(map[string]string),
	}
}

// Users exposes the store as a UserRepository.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Admins exposes the store as an AdminRepository.
func (s *MemoryStore) Admins() AdminRepository { return memoryAdmins{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, exists := m.s.users[user.Email]; exists {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.s.users[user.Email] = *user
	return nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	user, ok := m.s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

type memoryAdmins struct{ s *MemoryStore }

func (m memoryAdmins) Create(_ context.Context, admin *domain.Admin) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, exists := m.s.admins[admin.Username]; exists {
		return ErrDuplicate
	}
	if _, exists := m.s.adminEmails[admin.Email]; exists {
		return ErrDuplicate
	}
	if _, exists := m.s.adminPhones[admin.Phone]; admin.Phone != "" && exists {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	admin.ID = uuid.NewString()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	m.s.admins[admin.Username] = *admin
	m.s.adminEmails[admin.Email] = admin.Username
	if admin.Phone != "" {
		m.s.adminPhones[admin.Phone] = admin.Username
	}
	return nil
}

func (m memoryAdmins) GetByUsername(_ context.Context, username string) (*domain.Admin, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	admin, ok := m.s.admins[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &admin, nil
}

func (m memoryAdmins) SetSuperadmin(_ context.Context, username string, superadmin bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	admin, ok := m.s.admins[username]
	if !ok {
		return ErrNotFound
	}
	admin.IsSuperadmin = superadmin
	admin.UpdatedAt = time.Now().UTC()
	m.s.admins[username] = admin
	return nil
}
