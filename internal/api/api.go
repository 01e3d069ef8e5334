package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/crview/crview/internal/client"
	"github.com/crview/crview/internal/controller"
	"github.com/crview/crview/internal/models"
	"github.com/crview/crview/internal/review"
)

// Server exposes the local dashboard API. It is a thin HTTP surface over the
// controller: every route maps to one controller operation or one derived
// read of its state.
type Server struct {
	ctrl *controller.Controller
}

// NewServer creates a new API server.
func NewServer(c *controller.Controller) *Server {
	return &Server{ctrl: c}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/state", s.getState)

	mux.HandleFunc("POST /api/v1/auth/login", s.login)
	mux.HandleFunc("POST /api/v1/auth/register", s.register)
	mux.HandleFunc("POST /api/v1/auth/logout", s.logout)

	mux.HandleFunc("POST /api/v1/uploads/file", s.uploadFile)
	mux.HandleFunc("POST /api/v1/uploads/archive", s.uploadArchive)
	mux.HandleFunc("GET /api/v1/uploads/staged", s.listStaged)
	mux.HandleFunc("POST /api/v1/uploads/staged", s.stageFiles)
	mux.HandleFunc("DELETE /api/v1/uploads/staged/{index}", s.unstage)
	mux.HandleFunc("POST /api/v1/uploads/staged/submit", s.submitStaged)

	mux.HandleFunc("GET /api/v1/result", s.getResult)
	mux.HandleFunc("GET /api/v1/result/issues", s.listIssues)
	mux.HandleFunc("GET /api/v1/result/distribution", s.getDistribution)
	mux.HandleFunc("POST /api/v1/result/reset", s.reset)

	mux.HandleFunc("GET /api/v1/history", s.listHistory)
	mux.HandleFunc("POST /api/v1/history/fetch", s.fetchHistory)
	mux.HandleFunc("POST /api/v1/history/{index}/select", s.selectHistory)

	mux.HandleFunc("POST /api/v1/error/dismiss", s.dismissError)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps a controller error to an HTTP status.
func fail(w http.ResponseWriter, err error) {
	switch {
	case client.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, client.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, client.ErrNoHistory):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, client.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, controller.ErrStale):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- State ---

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctrl.State(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// --- Auth ---

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sess, err := s.ctrl.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sess, err := s.ctrl.Register(r.Context(), creds.Username, creds.Password)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Logout(r.Context()); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Uploads ---

// localPath names a file on the machine the server runs on. The API serves a
// dashboard for this machine's working copy, so uploads are path references,
// not request bodies.
type localPath struct {
	Path string `json:"path"`
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	var req localPath
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	result, err := s.ctrl.UploadSingle(r.Context(), req.Path)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) uploadArchive(w http.ResponseWriter, r *http.Request) {
	var req localPath
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	result, err := s.ctrl.UploadArchive(r.Context(), req.Path)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listStaged(w http.ResponseWriter, r *http.Request) {
	staged, err := s.ctrl.Staged(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if staged == nil {
		staged = []*models.StagedFile{}
	}
	writeJSON(w, http.StatusOK, staged)
}

func (s *Server) stageFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paths []string `json:"paths"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.ctrl.StageFiles(r.Context(), req.Paths); err != nil {
		fail(w, err)
		return
	}
	s.listStaged(w, r)
}

func (s *Server) unstage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	if err := s.ctrl.Unstage(r.Context(), index); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitStaged(w http.ResponseWriter, r *http.Request) {
	result, err := s.ctrl.SubmitStaged(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Result ---

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctrl.State(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if st.Result == nil {
		writeError(w, http.StatusNotFound, "no result to show")
		return
	}
	writeJSON(w, http.StatusOK, st.Result)
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctrl.State(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if st.Result == nil {
		writeError(w, http.StatusNotFound, "no result to show")
		return
	}

	pred := r.URL.Query().Get("severity")
	if pred == "" {
		pred = review.FilterAll
	}
	all := review.SortBySeverity(review.Flatten(st.Result.Files))
	counts := review.CountBySeverity(all)
	issues := review.Filter(all, pred)
	if issues == nil {
		issues = []models.AggregatedIssue{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"issues": issues,
		"counts": counts,
	})
}

func (s *Server) getDistribution(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctrl.State(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if st.Result == nil {
		writeError(w, http.StatusNotFound, "no result to show")
		return
	}
	entries := review.DistributionPairs(st.Result.Summary.IssueDistribution)
	if entries == nil {
		entries = []review.DistributionEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Reset(r.Context()); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- History ---

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.ctrl.History(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) fetchHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.ctrl.FetchHistory(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) selectHistory(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	result, err := s.ctrl.SelectHistory(r.Context(), index)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Errors ---

func (s *Server) dismissError(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.DismissError(r.Context()); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
