package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vHugoObject/the-manager/internal/auth"
	"github.com/vHugoObject/the-manager/internal/domain/calendar"
	"github.com/vHugoObject/the-manager/internal/domain/schedule"
	"github.com/vHugoObject/the-manager/internal/domain/tournament"
	"github.com/vHugoObject/the-manager/internal/engine"
	"github.com/vHugoObject/the-manager/internal/metrics"
)

type Dependencies struct {
	Engine   *engine.Engine
	Recorder *metrics.Recorder
	APIToken string
}

type Server struct {
	engine   *engine.Engine
	recorder *metrics.Recorder
	auth     auth.Middleware
}

func NewServer(deps Dependencies) *Server {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.NewRecorder(0)
	}
	return &Server{
		engine:   deps.Engine,
		recorder: recorder,
		auth:     auth.NewMiddleware(deps.APIToken),
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/saves", s.handleCreateSave)
	mux.HandleFunc("GET /v1/saves", s.handleListSaves)
	mux.HandleFunc("GET /v1/saves/{id}", s.handleGetSave)
	mux.HandleFunc("DELETE /v1/saves/{id}", s.handleDeleteSave)
	mux.HandleFunc("POST /v1/saves/{id}/advance", s.handleAdvance)
	mux.HandleFunc("GET /v1/saves/{id}/standings/{competitionID}", s.handleStandings)
	mux.HandleFunc("GET /v1/saves/{id}/calendar/{date}", s.handleCalendarDay)
	mux.HandleFunc("GET /v1/saves/{id}/matches", s.handleMatches)
	mux.HandleFunc("GET /v1/metrics", s.handleMetrics)

	return s.auth.Guard(loggingMiddleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSave(w http.ResponseWriter, r *http.Request) {
	var payload engine.NewGame
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	save, err := s.engine.CreateSave(r.Context(), payload)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, save)
}

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	items, err := s.engine.ListSaves(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saves": items})
}

func (s *Server) handleGetSave(w http.ResponseWriter, r *http.Request) {
	saveID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	save, err := s.engine.GetSave(r.Context(), saveID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, save)
}

func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	saveID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.engine.DeleteSave(r.Context(), saveID); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	saveID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	days := 1
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	start := time.Now()
	save, logs, err := s.engine.AdvanceDays(r.Context(), saveID, days)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.recorder.Record(metrics.AdvanceSample{
		SaveID:        saveID,
		Days:          days,
		MatchesPlayed: len(logs),
		Latency:       time.Since(start),
		Timestamp:     time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"currentDate":   save.CurrentDate,
		"currentSeason": save.CurrentSeason,
		"matchLogs":     logs,
	})
}

type standingsRow struct {
	tournament.Row
	ClubName string `json:"clubName"`
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	saveID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	competitionID, err := uuid.Parse(r.PathValue("competitionID"))
	if err != nil {
		http.Error(w, "invalid competition id", http.StatusBadRequest)
		return
	}

	save, err := s.engine.GetSave(r.Context(), saveID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	rows, err := s.engine.Standings(r.Context(), saveID, competitionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	table := make([]standingsRow, 0, len(rows))
	for _, row := range rows {
		table = append(table, standingsRow{Row: row, ClubName: save.Clubs[row.ClubID].Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"competitionId": competitionID,
		"season":        save.CurrentSeason,
		"table":         table,
	})
}

func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	saveID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	day, err := calendar.ParseKey(r.PathValue("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	save, err := s.engine.GetSave(r.Context(), saveID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	entry, ok := save.Calendar.Entry(day)
	if !ok {
		http.Error(w, "date outside season calendar", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	saveID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	save, err := s.engine.GetSave(r.Context(), saveID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	logs := save.MatchLogs
	if raw := r.URL.Query().Get("clubId"); raw != "" {
		clubID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid club id", http.StatusBadRequest)
			return
		}
		filtered := logs[:0:0]
		for _, log := range logs {
			if log.HomeClubID == clubID || log.AwayClubID == clubID {
				filtered = append(filtered, log)
			}
		}
		logs = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"matchLogs": logs})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"advances": s.recorder.Snapshot()})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSaveNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, schedule.ErrScheduleMismatch):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrUnknownEntity),
		errors.Is(err, tournament.ErrTooFewClubs),
		errors.Is(err, schedule.ErrUnschedulableRounds):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s duration=%s", r.Method, r.URL.Path, time.Since(start))
	})
}
