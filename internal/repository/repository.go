package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koopkredit/lending-service/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrScheduleExists is returned when a schedule has already been generated
// for a loan. Schedule generation is at-most-once per loan.
var ErrScheduleExists = errors.New("schedule already exists")

// ErrPaymentDecided is returned when a payment has already been verified or
// rejected. The pending -> verified/rejected transition is one-way.
var ErrPaymentDecided = errors.New("payment already decided")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateMember creates a new member in the database
func (r *Repository) CreateMember(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO lending.members (username, email, password_hash, role, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, member.Username, member.Email, member.PasswordHash, member.Role, member.Approved).
		Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// FindMemberByEmail retrieves a member by email
func (r *Repository) FindMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	member := &models.Member{}
	query := `
		SELECT id, username, email, password_hash, role, approved, created_at, updated_at
		FROM lending.members
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&member.ID, &member.Username, &member.Email, &member.PasswordHash,
			&member.Role, &member.Approved, &member.CreatedAt, &member.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return member, nil
}

// FindMemberByID retrieves a member by id
func (r *Repository) FindMemberByID(ctx context.Context, id int64) (*models.Member, error) {
	member := &models.Member{}
	query := `
		SELECT id, username, email, password_hash, role, approved, created_at, updated_at
		FROM lending.members
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&member.ID, &member.Username, &member.Email, &member.PasswordHash,
			&member.Role, &member.Approved, &member.CreatedAt, &member.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return member, nil
}

// ApproveMember flips a member's approved flag
func (r *Repository) ApproveMember(ctx context.Context, id int64) error {
	query := `
		UPDATE lending.members
		SET approved = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to approve member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
