package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	"github.com/shelterscout/shelterscout-server/internal/store"
)

const operatorColumns = `id, created_at, updated_at, email, password_hash, is_root`

func scanOperator(scanner interface{ Scan(dest ...any) error }) (*domain.Operator, error) {
	var op domain.Operator

	var (
		createdAt string
		updatedAt string
		isRoot    int
	)

	err := scanner.Scan(
		&op.ID,
		&createdAt,
		&updatedAt,
		&op.Email,
		&op.PasswordHash,
		&isRoot,
	)
	if err != nil {
		return nil, err
	}

	op.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	op.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	op.IsRoot = isRoot != 0

	return &op, nil
}

// CreateOperator inserts a new operator. Email is stored lowercased.
// Returns store.ErrAlreadyExists if the email is taken.
func (s *Store) CreateOperator(ctx context.Context, op *domain.Operator) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operators (id, created_at, updated_at, email, password_hash, is_root)
		VALUES (?, ?, ?, ?, ?, ?)`,
		op.ID,
		formatTime(op.CreatedAt),
		formatTime(op.UpdatedAt),
		strings.ToLower(op.Email),
		op.PasswordHash,
		boolToInt(op.IsRoot),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("insert operator: %w", err)
	}
	return nil
}

// GetOperator retrieves an operator by ID.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetOperator(ctx context.Context, id string) (*domain.Operator, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE id = ?`, id)
	op, err := scanOperator(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get operator %s: %w", id, err)
	}
	return op, nil
}

// GetOperatorByEmail retrieves an operator by email, case-insensitively.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetOperatorByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE email = ?`,
		strings.ToLower(email))
	op, err := scanOperator(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get operator by email: %w", err)
	}
	return op, nil
}

// CountOperators returns the number of operators. Zero means the instance
// has not been set up yet.
func (s *Store) CountOperators(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operators`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	return n, nil
}
