package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/aanand-mishra/smart-umis-api/internal/storage"
	"github.com/aanand-mishra/smart-umis-api/internal/types"
)

// studentColumns must stay in step with scanStudent.
var studentColumns = []string{
	"id",
	"department",
	"full_name",
	"father_name",
	"COALESCE(caste, '')",
	"COALESCE(mother_occupation, '')",
	"COALESCE(father_occupation, '')",
	"COALESCE(entered_by, '')",
	"created_at",
	"updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (types.Student, error) {
	var student types.Student
	err := row.Scan(
		&student.ID,
		&student.Department,
		&student.FullName,
		&student.FatherName,
		&student.Caste,
		&student.MotherOccupation,
		&student.FatherOccupation,
		&student.EnteredBy,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	return student, err
}

// execBuilt renders a squirrel statement and runs it through exec.
func (s *SQLite) execBuilt(ctx context.Context, op string, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	return s.exec(ctx, op, query, args...)
}

// CreateStudent inserts a student and returns the new id. created_at and
// updated_at both take the current time.
func (s *SQLite) CreateStudent(ctx context.Context, fields types.StudentFields, enteredBy string) (int64, error) {
	now := s.timestamp()

	result, err := s.execBuilt(ctx, "CreateStudent", sq.
		Insert("students").
		Columns(
			"department", "full_name", "father_name",
			"caste", "mother_occupation", "father_occupation",
			"entered_by", "created_at", "updated_at",
		).
		Values(
			fields.Department, fields.FullName, fields.FatherName,
			fields.Caste, fields.MotherOccupation, fields.FatherOccupation,
			enteredBy, now, now,
		))
	if err != nil {
		return 0, err
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}

	return lastID, nil
}

// GetStudents returns every student, newest first. Rows created within the
// same instant fall back to descending id.
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	query, args, err := sq.
		Select(studentColumns...).
		From("students").
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("GetStudents: build query: %w", err)
	}

	stmt, err := s.Db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// GetStudentByID fetches exactly one student by primary key.
func (s *SQLite) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	query, args, err := sq.
		Select(studentColumns...).
		From("students").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: build query: %w", err)
	}

	stmt, err := s.Db.PrepareContext(ctx, query)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	student, err := scanStudent(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("GetStudentByID: id %d: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// UpdateStudentByID overwrites every mutable column and refreshes
// updated_at. It returns the number of rows changed.
func (s *SQLite) UpdateStudentByID(ctx context.Context, id int64, fields types.StudentFields) (int64, error) {
	result, err := s.execBuilt(ctx, "UpdateStudentByID", sq.
		Update("students").
		Set("department", fields.Department).
		Set("full_name", fields.FullName).
		Set("father_name", fields.FatherName).
		Set("caste", fields.Caste).
		Set("mother_occupation", fields.MotherOccupation).
		Set("father_occupation", fields.FatherOccupation).
		Set("updated_at", s.timestamp()).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return 0, err
	}

	changes, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("UpdateStudentByID: rows affected: %w", err)
	}

	return changes, nil
}

// DeleteStudentByID removes a student row and returns the number of rows
// removed.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id int64) (int64, error) {
	result, err := s.execBuilt(ctx, "DeleteStudentByID", sq.
		Delete("students").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return 0, err
	}

	changes, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}

	return changes, nil
}
