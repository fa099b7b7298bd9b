package store

import (
	"context"
	"sync"

	"presence/internal/identity/models"
	dErrors "presence/pkg/domainerrors"
)

// Memory is an in-memory identity store for tests and local development.
// It mirrors the Postgres store's contract, including (nil, nil) for
// unknown emails.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.UserWithCredential
}

func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		users:  make(map[int64]*models.UserWithCredential),
	}
}

// Seed inserts a fully-formed user, returning its id. Test helper.
func (s *Memory) Seed(user models.UserWithCredential) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	user.User.ID = id
	user.Credential.UserID = id
	s.users[id] = &user
	return id
}

func (s *Memory) FindUserByEmail(ctx context.Context, email string) (*models.UserWithCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *Memory) CreateUser(ctx context.Context, reg models.Registration, passwordHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == reg.Email {
			return 0, dErrors.New(dErrors.CodeConflict, "email_already_registered")
		}
	}
	id := s.nextID
	s.nextID++
	s.users[id] = &models.UserWithCredential{
		User: models.User{
			ID:        id,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Email:     reg.Email,
			Status:    "active",
		},
		Credential: models.Credential{UserID: id, PasswordHash: passwordHash},
		Roles:      []string{models.DefaultRole},
	}
	return id, nil
}

func (s *Memory) RecordFailedLogin(ctx context.Context, userID int64, attempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.FailedLoginAttempts = attempts
	}
	return nil
}

// FailedLoginAttempts reads the persisted counter. Test helper.
func (s *Memory) FailedLoginAttempts(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		return u.FailedLoginAttempts
	}
	return 0
}

func (s *Memory) GetHomeArea(ctx context.Context, userID int64) (*models.HomeArea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.HomeLat == nil || u.HomeLon == nil {
		return nil, nil
	}
	return &models.HomeArea{Lat: *u.HomeLat, Lon: *u.HomeLon}, nil
}

func (s *Memory) UpdateHomeArea(ctx context.Context, userID int64, lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "user_not_found")
	}
	u.HomeLat = &lat
	u.HomeLon = &lon
	return nil
}
