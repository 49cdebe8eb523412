package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/ridelink/booking-backend/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, full_name, email, password_hash, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if len(user.Roles) == 0 {
		user.Roles = []string{"passenger"}
	}

	err := r.db.QueryRow(
		query,
		user.ID, user.FullName, user.Email, user.PasswordHash,
		pq.Array(user.Roles),
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID. Returns (nil, nil) when no row exists.
func (r *UserRepository) GetByID(userID string) (*models.User, error) {
	query := `
		SELECT id, full_name, email, password_hash, roles, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.getOne(query, userID)
}

// GetByEmail retrieves a user by email. Returns (nil, nil) when no row exists.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, full_name, email, password_hash, roles, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.getOne(query, email)
}

// Exists reports whether a user row exists
func (r *UserRepository) Exists(userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// EmailExists reports whether an account with this email already exists
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) getOne(query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	var roles pq.StringArray

	err := r.db.QueryRow(query, arg).Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash,
		&roles, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	user.Roles = []string(roles)
	return user, nil
}
