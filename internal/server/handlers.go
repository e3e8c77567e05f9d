package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/khrees2412/mockly/internal/app"
	"github.com/khrees2412/mockly/internal/resume"
	"github.com/khrees2412/mockly/internal/session"
	"github.com/khrees2412/mockly/pkg/models"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to an HTTP status
func statusFor(kind string) int {
	switch kind {
	case app.KindValidation:
		return http.StatusBadRequest
	case app.KindState, app.KindReset:
		return http.StatusConflict
	case app.KindParse:
		return http.StatusUnprocessableEntity
	case app.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := app.Kind(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return &session.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()}
	}
	return nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) uploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, resume.MaxSize+1<<20)
	if err := r.ParseMultipartForm(resume.MaxSize); err != nil {
		s.writeError(w, &session.ValidationError{Field: "file", Reason: "invalid multipart upload"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, &session.ValidationError{Field: "file", Reason: "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, &session.ValidationError{Field: "file", Reason: "failed to read upload"})
		return
	}

	snap, err := s.engine.UploadResume(r.Context(), header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) ingestProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.CandidateProfile
	if err := decodeBody(r, &profile); err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.engine.IngestProfile(r.Context(), profile)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) completeProfile(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := decodeBody(r, &fields); err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.engine.CompleteProfile(r.Context(), fields)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) begin(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.BeginInterview(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// answerRequest carries the text for the question the client displayed; a blank question_id
// targets the active question
type answerRequest struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.engine.SaveDraft(r.Context(), req.QuestionID, req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.engine.SubmitAnswer(r.Context(), req.QuestionID, req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Pause(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) resumeTimer(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Resume(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ResetSession(r.Context()))
}

func (s *Server) listArchives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.ArchiveQuery{
		SortBy:     q.Get("sort"),
		Descending: strings.EqualFold(q.Get("order"), "desc"),
		Search:     q.Get("q"),
	}
	if order := q.Get("order"); order != "" && !strings.EqualFold(order, "asc") && !strings.EqualFold(order, "desc") {
		s.writeError(w, &session.ValidationError{Field: "order", Reason: "must be asc or desc"})
		return
	}

	records, err := s.engine.ListArchives(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getArchive(w http.ResponseWriter, r *http.Request) {
	record, err := s.engine.GetArchive(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
