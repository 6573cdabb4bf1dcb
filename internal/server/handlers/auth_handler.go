package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"srms/internal/auth"
	"srms/internal/server/util"
)

// AuthHandler exposes registration, login and the current-account lookup.
type AuthHandler struct {
	Auth     *auth.Service
	validate *validator.Validate
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		Auth:     authService,
		validate: validator.New(),
	}
}

type registerStudentRequest struct {
	Name        string `json:"name" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
	RollNumber  string `json:"roll_number" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
}

type registerTeacherRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=student teacher"`
}

// RegisterStudent handles POST /api/auth/register
func (h *AuthHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Please provide all required fields")
		return
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid date of birth")
		return
	}

	user, token, err := h.Auth.RegisterStudent(r.Context(), auth.RegisterStudentInput{
		Name:        req.Name,
		Password:    req.Password,
		RollNumber:  req.RollNumber,
		DateOfBirth: dob,
	})
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// RegisterTeacher handles POST /api/auth/register-teacher
func (h *AuthHandler) RegisterTeacher(w http.ResponseWriter, r *http.Request) {
	var req registerTeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Please provide all required fields")
		return
	}

	user, token, err := h.Auth.RegisterTeacher(r.Context(), auth.RegisterTeacherInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Please provide all required fields")
		return
	}

	user, token, err := h.Auth.Login(r.Context(), req.Identifier, req.Password, req.Role)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
