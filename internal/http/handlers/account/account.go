// Package account contains the registration and login handlers.
//
// Neither handler issues tokens or sessions: a successful login only
// returns the public part of the user row.
package account

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/smart-umis-api/internal/password"
	"github.com/aanand-mishra/smart-umis-api/internal/storage"
	"github.com/aanand-mishra/smart-umis-api/internal/types"
	"github.com/aanand-mishra/smart-umis-api/internal/utils/request"
	"github.com/aanand-mishra/smart-umis-api/internal/utils/response"
)

const (
	msgFillAllFields      = "Please fill all fields"
	msgDuplicate          = "Username or Email already exists"
	msgMissingCredentials = "Please provide username and password"
	msgInvalidCredentials = "Invalid username or password"
	msgDatabaseError      = "Database error"
	msgInvalidBody        = "Invalid request body"

	msgCreated  = "Account created successfully"
	msgLoggedIn = "Login successful"
)

var validate = validator.New()

type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type loginResponse struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

// Register handles POST /api/auth/register.
//
//	201 {message, userId}
//	400 a field is missing, or username/email is taken
//	500 database error
func Register(store storage.AccountStore, hasher password.Hasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RegisterRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(msgInvalidBody, err))
			return
		}

		slog.Info("registering a user", slog.String("username", req.Username))

		if err := validate.Struct(req); err != nil {
			logRejected(err)
			response.WriteJSON(w, http.StatusBadRequest, response.Message(msgFillAllFields))
			return
		}

		hashed, err := hasher.Hash(req.Password)
		if err != nil {
			slog.Error("error hashing password", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Message(msgDatabaseError))
			return
		}

		id, err := store.CreateUser(r.Context(), types.User{
			FullName: req.FullName,
			Username: req.Username,
			Email:    req.Email,
			Password: hashed,
			Role:     req.Role,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			response.WriteJSON(w, http.StatusBadRequest, response.Message(msgDuplicate))
			return
		}
		if err != nil {
			slog.Error("error registering user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Message(msgDatabaseError))
			return
		}

		slog.Info("user registered", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusCreated, registerResponse{
			Message: msgCreated,
			UserID:  id,
		})
	}
}

// Login handles POST /api/auth/login. An unknown username and a wrong
// password produce the same 400.
func Login(store storage.AccountStore, hasher password.Hasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(msgInvalidBody, err))
			return
		}

		slog.Info("logging in", slog.String("username", req.Username))

		if err := validate.Struct(req); err != nil {
			logRejected(err)
			response.WriteJSON(w, http.StatusBadRequest, response.Message(msgMissingCredentials))
			return
		}

		user, err := store.GetUserByUsername(r.Context(), req.Username)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusBadRequest, response.Message(msgInvalidCredentials))
			return
		}
		if err != nil {
			slog.Error("error looking up user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Message(msgDatabaseError))
			return
		}

		if !hasher.Matches(user.Password, req.Password) {
			response.WriteJSON(w, http.StatusBadRequest, response.Message(msgInvalidCredentials))
			return
		}

		response.WriteJSON(w, http.StatusOK, loginResponse{
			Message: msgLoggedIn,
			User:    user,
		})
	}
}

func logRejected(err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		slog.Debug("account payload rejected",
			slog.String("reason", response.DescribeValidation(verrs)))
	}
}
