package services

import (
	"context"
	"sync"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/repositories"
)

// mockUserRepository is an in-memory implementation of CredentialStore and UserRepository
type mockUserRepository struct {
	mu     sync.Mutex
	users  map[int]*models.User
	nextID int

	getErr    error
	createErr error
	updateErr error
	deleteErr error
	countErr  error
	rehashErr error

	getByEmailCalls int
	rehashCalls     int
	lastChanges     *models.UserChanges
}

func newMockUserRepository(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[int]*models.User), nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = m.nextID
		}
		if u.ID >= m.nextID {
			m.nextID = u.ID + 1
		}
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByEmailCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepository) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([]models.User, 0, len(m.users))
	for id := 1; id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.users), nil
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	user.ID = m.nextID
	m.nextID++
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepository) Update(ctx context.Context, id int, changes *models.UserChanges) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastChanges = changes
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	current, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if changes.Email != nil {
		for _, u := range m.users {
			if u.ID != id && u.Email == *changes.Email {
				return nil, repositories.ErrDuplicateEmail
			}
		}
	}
	if changes.Role != nil && current.Role == models.RoleAdmin && *changes.Role != models.RoleAdmin && m.adminsLocked() <= 1 {
		return nil, repositories.ErrLastAdmin
	}
	changes.Apply(current)
	cp := *current
	return &cp, nil
}

func (m *mockUserRepository) UpdatePasswordHash(ctx context.Context, id int, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rehashCalls++
	if m.rehashErr != nil {
		return m.rehashErr
	}
	u, ok := m.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	u, ok := m.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if u.Role == models.RoleAdmin && m.adminsLocked() <= 1 {
		return repositories.ErrLastAdmin
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) stored(id int) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (m *mockUserRepository) adminsLocked() int {
	n := 0
	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			n++
		}
	}
	return n
}
