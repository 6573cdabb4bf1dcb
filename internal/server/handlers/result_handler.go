package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"srms/internal/result"
	"srms/internal/server/util"
	"srms/internal/shared"
)

// ResultHandler exposes the result lifecycle endpoints. Role gates run here,
// before any service call.
type ResultHandler struct {
	Results *result.Service
	Uploads shared.UploadConfig
}

// NewResultHandler creates a new ResultHandler instance
func NewResultHandler(resultService *result.Service, uploads shared.UploadConfig) *ResultHandler {
	return &ResultHandler{
		Results: resultService,
		Uploads: uploads,
	}
}

type updateResultRequest struct {
	ExamName *string                `json:"exam_name"`
	ExamDate *string                `json:"exam_date"`
	Remarks  *string                `json:"remarks"`
	Subjects *[]shared.SubjectEntry `json:"subjects"`
}

// Create handles POST /api/results (multipart, optional `pdf` file field).
// Teachers and admins only.
func (h *ResultHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil || !user.CanManageResults() {
		util.WriteJSONError(w, http.StatusForbidden, "Access denied: Only teachers can create results")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Uploads.MaxPDFSize)
	if err := r.ParseMultipartForm(h.Uploads.MaxPDFSize); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	examDate, err := parseDate(r.FormValue("exam_date"))
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid exam date")
		return
	}

	input := result.CreateInput{
		StudentID:    r.FormValue("student_id"),
		ExamName:     r.FormValue("exam_name"),
		ExamDate:     examDate,
		Remarks:      r.FormValue("remarks"),
		SubjectsJSON: r.FormValue("subjects"),
	}

	// The attachment write is inline and blocking; the request does not
	// complete until the file is durable.
	if file, header, err := r.FormFile("pdf"); err == nil {
		defer file.Close()
		name, err := saveUploadedFile(h.Uploads.Dir, attachmentFilename(header.Filename), file)
		if err != nil {
			util.WriteJSONError(w, http.StatusInternalServerError, "Failed to store attachment")
			return
		}
		input.PDFPath = name
	}

	created, err := h.Results.Create(r.Context(), user, input)
	if err != nil {
		if input.PDFPath != "" {
			os.Remove(filepath.Join(h.Uploads.Dir, input.PDFPath))
		}
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"result":  created,
	})
}

// ListAll handles GET /api/results. Teachers only.
func (h *ResultHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil || user.Role != shared.RoleTeacher {
		util.WriteJSONError(w, http.StatusForbidden, "Access denied: Only teachers can view all results")
		return
	}

	results, err := h.Results.ListAll(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(results),
		"results": results,
	})
}

// ListForStudent handles GET /api/results/student/{studentId}. The ownership
// rule lives in the service: a student may only request their own.
func (h *ResultHandler) ListForStudent(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	studentID := chi.URLParam(r, "studentId")

	results, err := h.Results.ListForStudent(r.Context(), user, studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(results),
		"results": results,
	})
}

// Get handles GET /api/results/{id}. Any authenticated caller.
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "result id is required")
		return
	}

	res, err := h.Results.Get(r.Context(), id)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  res,
	})
}

// Update handles PUT /api/results/{id}. Teachers only.
func (h *ResultHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil || user.Role != shared.RoleTeacher {
		util.WriteJSONError(w, http.StatusForbidden, "Access denied: Only teachers can update results")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "result id is required")
		return
	}

	var req updateResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := result.UpdateInput{
		ExamName: req.ExamName,
		Remarks:  req.Remarks,
		Subjects: req.Subjects,
	}
	if req.ExamDate != nil {
		examDate, err := parseDate(*req.ExamDate)
		if err != nil {
			util.WriteJSONError(w, http.StatusBadRequest, "Invalid exam date")
			return
		}
		input.ExamDate = &examDate
	}

	updated, err := h.Results.Update(r.Context(), id, input)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  updated,
	})
}

// Delete handles DELETE /api/results/{id}. Teachers only.
func (h *ResultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil || user.Role != shared.RoleTeacher {
		util.WriteJSONError(w, http.StatusForbidden, "Access denied: Only teachers can delete results")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "result id is required")
		return
	}

	if err := h.Results.Delete(r.Context(), id); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Result deleted successfully",
	})
}
