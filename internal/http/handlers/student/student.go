// Package student contains the HTTP handlers for the student resource.
//
// Each exported function is a factory: it receives its dependencies once,
// at route registration, and returns the http.HandlerFunc that serves
// every request.
//
//	router.HandleFunc("POST /api/students/add", student.Add(store, opts))
package student

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/smart-umis-api/internal/storage"
	"github.com/aanand-mishra/smart-umis-api/internal/types"
	"github.com/aanand-mishra/smart-umis-api/internal/utils/request"
	"github.com/aanand-mishra/smart-umis-api/internal/utils/response"
)

const (
	msgRequired    = "Department, Full Name, and Father Name are required"
	msgNotFound    = "Student not found"
	msgInvalidBody = "Invalid request body"

	msgSaved   = "Student data saved successfully"
	msgListed  = "Students fetched successfully"
	msgFetched = "Student fetched successfully"
	msgUpdated = "Student data updated successfully"
	msgDeleted = "Student deleted successfully"

	msgSaveFailed   = "Failed to save student data"
	msgListFailed   = "Failed to fetch students"
	msgFetchFailed  = "Failed to fetch student"
	msgUpdateFailed = "Failed to update student data"
	msgDeleteFailed = "Failed to delete student"
)

var validate = validator.New()

// Options tune how the handlers report failures.
type Options struct {
	// HideDBErrors leaves the driver message out of 500 bodies.
	HideDBErrors bool
}

type addResponse struct {
	Message   string           `json:"message"`
	StudentID int64            `json:"studentId"`
	Student   types.NewStudent `json:"student"`
}

type listResponse struct {
	Message  string          `json:"message"`
	Count    int             `json:"count"`
	Students []types.Student `json:"students"`
}

type getResponse struct {
	Message string        `json:"message"`
	Student types.Student `json:"student"`
}

type changesResponse struct {
	Message string `json:"message"`
	Changes int64  `json:"changes"`
}

// Add handles POST /api/students/add.
//
//	201 {message, studentId, student}
//	400 department, fullName or fatherName missing, or malformed JSON
//	500 database error
func Add(store storage.StudentStore, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("adding a student")

		var req types.AddStudentRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(msgInvalidBody, err))
			return
		}

		if !valid(req) {
			response.WriteJSON(w, http.StatusBadRequest, response.Message(msgRequired))
			return
		}

		if req.EnteredBy == "" {
			req.EnteredBy = types.DefaultEnteredBy
		}

		id, err := store.CreateStudent(r.Context(), req.StudentFields, req.EnteredBy)
		if err != nil {
			slog.Error("error adding student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.DBError(msgSaveFailed, err, opts.HideDBErrors))
			return
		}

		slog.Info("student added", slog.Int64("id", id))

		response.WriteJSON(w, http.StatusCreated, addResponse{
			Message:   msgSaved,
			StudentID: id,
			Student:   types.NewStudent{ID: id, AddStudentRequest: req},
		})
	}
}

// GetList handles GET /api/students. An empty table is still a 200 with
// count 0 and an empty array.
func GetList(store storage.StudentStore, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.GetStudents(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.DBError(msgListFailed, err, opts.HideDBErrors))
			return
		}

		response.WriteJSON(w, http.StatusOK, listResponse{
			Message:  msgListed,
			Count:    len(students),
			Students: students,
		})
	}
}

// GetByID handles GET /api/students/{id}.
func GetByID(store storage.StudentStore, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		slog.Info("getting a student", slog.String("id", r.PathValue("id")))
		if !ok {
			response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
			return
		}

		student, err := store.GetStudentByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
			return
		}
		if err != nil {
			slog.Error("error getting student",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.DBError(msgFetchFailed, err, opts.HideDBErrors))
			return
		}

		response.WriteJSON(w, http.StatusOK, getResponse{
			Message: msgFetched,
			Student: student,
		})
	}
}

// Update handles PUT /api/students/{id}.
//
// All six mutable fields are overwritten; an omitted optional field is
// stored as "". A missing student is detected from the affected-row count
// of the UPDATE itself, never from a prior read.
//
// The body is checked before the id: a malformed or incomplete body is a
// 400 even when no student has that id. Only a valid body can produce the
// 404.
func Update(store storage.StudentStore, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		slog.Info("updating a student", slog.String("id", r.PathValue("id")))

		var fields types.StudentFields
		if err := request.DecodeJSON(w, r, &fields); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(msgInvalidBody, err))
			return
		}

		if !valid(fields) {
			response.WriteJSON(w, http.StatusBadRequest, response.Message(msgRequired))
			return
		}

		if !ok {
			response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
			return
		}

		changes, err := store.UpdateStudentByID(r.Context(), id, fields)
		if err != nil {
			slog.Error("error updating student",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.DBError(msgUpdateFailed, err, opts.HideDBErrors))
			return
		}

		if changes == 0 {
			response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
			return
		}

		slog.Info("student updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, changesResponse{
			Message: msgUpdated,
			Changes: changes,
		})
	}
}

// Delete handles DELETE /api/students/{id}.
func Delete(store storage.StudentStore, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		slog.Info("deleting a student", slog.String("id", r.PathValue("id")))
		if !ok {
			response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
			return
		}

		changes, err := store.DeleteStudentByID(r.Context(), id)
		if err != nil {
			slog.Error("error deleting student",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.DBError(msgDeleteFailed, err, opts.HideDBErrors))
			return
		}

		if changes == 0 {
			response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
			return
		}

		slog.Info("student deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, changesResponse{
			Message: msgDeleted,
			Changes: changes,
		})
	}
}

// pathID parses the {id} segment. Anything that is not a base-10 integer
// cannot match a row.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func valid(v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		slog.Debug("student payload rejected",
			slog.String("reason", response.DescribeValidation(verrs)))
	}
	return false
}
