// Package store persists directory users, credentials, and role
// memberships. Stores are pure I/O; business rules live in the service.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"presence/internal/identity/models"
	dErrors "presence/pkg/domainerrors"
)

// pqUniqueViolation is the Postgres error code for unique constraint hits.
const pqUniqueViolation = "23505"

// Postgres is the production identity store.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// FindUserByEmail loads a user with credential and role names in one
// read. Returns (nil, nil) when the email is unknown.
func (s *Postgres) FindUserByEmail(ctx context.Context, email string) (*models.UserWithCredential, error) {
	query := `
		SELECT
			u.id, u.first_name, COALESCE(u.last_name, ''), u.email, u.status,
			u.home_lat, u.home_lon,
			c.password_hash, c.failed_login_attempts,
			COALESCE(array_agg(r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
		FROM users u
		JOIN auth_credentials c ON c.user_id = u.id
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		WHERE u.email = $1
		GROUP BY u.id, c.user_id
	`
	var user models.UserWithCredential
	var roles pq.StringArray
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.User.ID, &user.FirstName, &user.LastName, &user.Email, &user.Status,
		&user.HomeLat, &user.HomeLon,
		&user.PasswordHash, &user.FailedLoginAttempts,
		&roles,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	user.Credential.UserID = user.User.ID
	user.Roles = []string(roles)
	return &user, nil
}

// CreateUser inserts profile, credential, and the default role membership
// in one transaction. A duplicate email surfaces as a conflict.
func (s *Postgres) CreateUser(ctx context.Context, reg models.Registration, passwordHash string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, birth_date, birth_place, full_address, phone_number)
		VALUES ($1, $2, $3, NULLIF($4, '')::date, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
		RETURNING id
	`, reg.FirstName, reg.LastName, reg.Email, reg.BirthDate, reg.BirthPlace, reg.FullAddress, reg.PhoneNumber).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, dErrors.New(dErrors.CodeConflict, "email_already_registered")
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO auth_credentials (user_id, password_hash)
		VALUES ($1, $2)
	`, userID, passwordHash); err != nil {
		return 0, fmt.Errorf("insert credential: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
	`, userID, models.DefaultRole); err != nil {
		return 0, fmt.Errorf("insert role membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create user: %w", err)
	}
	return userID, nil
}

// RecordFailedLogin persists the failed-attempt counter.
func (s *Postgres) RecordFailedLogin(ctx context.Context, userID int64, attempts int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE auth_credentials SET failed_login_attempts = $1 WHERE user_id = $2
	`, attempts, userID)
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	return nil
}

// GetHomeArea returns the user's designated area center, or (nil, nil)
// when the user has never set one.
func (s *Postgres) GetHomeArea(ctx context.Context, userID int64) (*models.HomeArea, error) {
	var lat, lon sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT home_lat, home_lon FROM users WHERE id = $1
	`, userID).Scan(&lat, &lon)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get home area: %w", err)
	}
	if !lat.Valid || !lon.Valid {
		return nil, nil
	}
	return &models.HomeArea{Lat: lat.Float64, Lon: lon.Float64}, nil
}

// UpdateHomeArea overwrites the user's designated area center.
func (s *Postgres) UpdateHomeArea(ctx context.Context, userID int64, lat, lon float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET home_lat = $1, home_lon = $2 WHERE id = $3
	`, lat, lon, userID)
	if err != nil {
		return fmt.Errorf("update home area: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update home area: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "user_not_found")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
