// Package storage defines the contracts any database backend must satisfy
// to serve the account and student handlers.
//
// ONE HANDLE, INJECTED
// ────────────────────
// The concrete backend is built once in main and passed to each handler
// factory. Handlers depend only on the narrow interface they use:
//
//   - account handlers take an AccountStore
//   - student handlers take a StudentStore
//
// Tests hand either one a stub instead of a real database.
//
// ERRORS
// ──────
// Implementations wrap their driver errors and expose two sentinels,
// ErrNotFound and ErrDuplicate, that handlers check with errors.Is. Any
// other error is a database failure and becomes a 500.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/smart-umis-api/internal/types"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint.
	ErrDuplicate = errors.New("record already exists")
)

// AccountStore persists user accounts.
type AccountStore interface {
	// CreateUser inserts a user whose Password is already hashed and
	// returns the new id. Wraps ErrDuplicate when username or email is
	// taken.
	CreateUser(ctx context.Context, user types.User) (int64, error)

	// GetUserByUsername returns ErrNotFound when no user has that username.
	GetUserByUsername(ctx context.Context, username string) (types.User, error)
}

// StudentStore persists student records.
//
// Update and delete report the number of affected rows and never decide
// by themselves that a record is missing; zero is the caller's business.
type StudentStore interface {
	CreateStudent(ctx context.Context, fields types.StudentFields, enteredBy string) (int64, error)

	// GetStudents returns all students newest first. The slice is never nil.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByID returns ErrNotFound when no row has that id.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	UpdateStudentByID(ctx context.Context, id int64, fields types.StudentFields) (int64, error)
	DeleteStudentByID(ctx context.Context, id int64) (int64, error)
}

// Storage is everything the HTTP layer needs from the database.
// Any type with all of these methods satisfies it implicitly; the SQLite
// backend asserts this at compile time.
type Storage interface {
	AccountStore
	StudentStore
	Close() error
}
