// Package types holds all shared data structures (models and request
// payloads) used across the application. Keeping them in one place prevents
// import cycles between handlers and storage.
package types

import "time"

// User is a row of the users table.
// Password holds whatever the configured hasher produced and is never
// encoded to JSON.
type User struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Role     string `json:"role"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Student is a row of the students table. JSON keys follow the column
// names, which is what the list and fetch endpoints have always returned.
type Student struct {
	ID               int64     `json:"id"`
	Department       string    `json:"department"`
	FullName         string    `json:"full_name"`
	FatherName       string    `json:"father_name"`
	Caste            string    `json:"caste"`
	MotherOccupation string    `json:"mother_occupation"`
	FatherOccupation string    `json:"father_occupation"`
	EnteredBy        string    `json:"entered_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StudentFields are the mutable columns of a student. It doubles as the
// body of PUT /api/students/{id}: every field is written, an omitted
// optional field is stored as "".
type StudentFields struct {
	Department       string `json:"department"       validate:"required"`
	FullName         string `json:"fullName"         validate:"required"`
	FatherName       string `json:"fatherName"       validate:"required"`
	Caste            string `json:"caste"`
	MotherOccupation string `json:"motherOccupation"`
	FatherOccupation string `json:"fatherOccupation"`
}

// DefaultEnteredBy is stored when a new student arrives without enteredBy.
const DefaultEnteredBy = "unknown"

// AddStudentRequest is the body of POST /api/students/add.
type AddStudentRequest struct {
	StudentFields
	EnteredBy string `json:"enteredBy"`
}

// NewStudent is the echo of a freshly inserted student, keyed the same way
// as the request that created it.
type NewStudent struct {
	ID int64 `json:"id"`
	AddStudentRequest
}
