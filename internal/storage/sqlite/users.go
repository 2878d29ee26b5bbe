package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/smart-umis-api/internal/storage"
	"github.com/aanand-mishra/smart-umis-api/internal/types"
)

// CreateUser inserts a new account and returns its id.
func (s *SQLite) CreateUser(ctx context.Context, user types.User) (int64, error) {
	result, err := s.exec(ctx, "CreateUser",
		"INSERT INTO users (fullName, username, email, password, role) VALUES (?, ?, ?, ?, ?)",
		user.FullName, user.Username, user.Email, user.Password, user.Role,
	)
	if err != nil {
		return 0, err
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateUser: last insert id: %w", err)
	}

	return lastID, nil
}

// GetUserByUsername fetches the account with an exact (case-sensitive)
// username match.
func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (types.User, error) {
	stmt, err := s.Db.PrepareContext(ctx, `
		SELECT id,
		       COALESCE(fullName, ''),
		       username,
		       COALESCE(email, ''),
		       COALESCE(password, ''),
		       COALESCE(role, '')
		FROM users
		WHERE username = ?
		LIMIT 1`)
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByUsername: prepare: %w", err)
	}
	defer stmt.Close()

	var user types.User
	err = stmt.QueryRowContext(ctx, username).Scan(
		&user.ID,
		&user.FullName,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.Role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, fmt.Errorf("GetUserByUsername: %w", storage.ErrNotFound)
		}
		return types.User{}, fmt.Errorf("GetUserByUsername: scan: %w", err)
	}

	return user, nil
}
