package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"srms/internal/server/util"
	"srms/internal/shared"
	"srms/internal/student"
)

// StudentHandler serves the student directory endpoints.
type StudentHandler struct {
	Students *student.Service
	Uploads  shared.UploadConfig
}

// NewStudentHandler creates a new StudentHandler instance
func NewStudentHandler(studentService *student.Service, uploads shared.UploadConfig) *StudentHandler {
	return &StudentHandler{
		Students: studentService,
		Uploads:  uploads,
	}
}

type updateStudentRequest struct {
	Name       *string `json:"name"`
	Class      *string `json:"class"`
	Section    *string `json:"section"`
	RollNumber *string `json:"roll_number"`
}

// List handles GET /api/students. Teachers only.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil || user.Role != shared.RoleTeacher {
		util.WriteJSONError(w, http.StatusForbidden, "Access denied: Only teachers can view students")
		return
	}

	students, err := h.Students.List(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"count":    len(students),
		"students": students,
	})
}

// Get handles GET /api/students/{id}. Any authenticated caller.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	found, err := h.Students.Get(r.Context(), studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"student": found,
	})
}

// Update handles PUT /api/students/{id}. A student may edit their own
// profile; teachers may edit any.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID := chi.URLParam(r, "id")
	if user == nil || (user.Role != shared.RoleTeacher && user.ID != studentID) {
		util.WriteJSONError(w, http.StatusForbidden, "Access denied: You can only edit your own profile")
		return
	}

	var req updateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.Students.Update(r.Context(), studentID, student.UpdateInput{
		Name:       req.Name,
		Class:      req.Class,
		Section:    req.Section,
		RollNumber: req.RollNumber,
	})
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"student": updated,
	})
}

// UploadProfilePicture handles POST /api/students/{id}/upload.
func (h *StudentHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID := chi.URLParam(r, "id")
	if user == nil || (user.Role != shared.RoleTeacher && user.ID != studentID) {
		util.WriteJSONError(w, http.StatusForbidden, "Access denied: You can only edit your own profile")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Uploads.MaxImageSize)
	if err := r.ParseMultipartForm(h.Uploads.MaxImageSize); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("profilePicture")
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "No profile picture provided")
		return
	}
	defer file.Close()

	if !isAllowedImage(header.Filename, header.Header.Get("Content-Type")) {
		util.WriteJSONError(w, http.StatusBadRequest, "Only JPEG and PNG images are allowed")
		return
	}

	name, err := saveUploadedFile(h.Uploads.Dir, pictureFilename(header.Filename), file)
	if err != nil {
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to store profile picture")
		return
	}

	updated, err := h.Students.SetProfilePicture(r.Context(), studentID, "/uploads/"+name)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"student": updated,
	})
}
