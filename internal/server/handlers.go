package server

import (
	"net/http"
	"strconv"

	"github.com/miaomiao/miaomiao/internal/activity"
	"github.com/miaomiao/miaomiao/internal/history"
	"github.com/miaomiao/miaomiao/internal/journal"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.pet.Trigger(s.base) {
		writeError(w, http.StatusConflict, "analysis already in progress")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type statsResponse struct {
	Report       string             `json:"report"`
	TotalSamples int                `json:"total_samples"`
	Averages     map[string]float64 `json:"averages"`
	Ranking      []activity.Ranked  `json:"ranking"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	tr := s.pet.Tracker()
	writeJSON(w, http.StatusOK, statsResponse{
		Report:       s.pet.ActivityReport(),
		TotalSamples: tr.TotalSamples(),
		Averages:     tr.CurrentAverages(),
		Ranking:      tr.Ranking(),
	})
}

func (s *Server) handleFavorability(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pet.FavorabilityDisplay())
}

type historyResponse struct {
	Messages []history.Entry `json:"messages"`
	Cycles   []journal.Entry `json:"cycles"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	resp := historyResponse{
		Messages: s.guard.Entries(),
		Cycles:   []journal.Entry{},
	}
	if resp.Messages == nil {
		resp.Messages = []history.Entry{}
	}
	if s.journal != nil {
		cycles, err := s.journal.Recent(limit)
		if err != nil {
			s.logger.Error("server: read journal", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to read journal")
			return
		}
		if cycles != nil {
			resp.Cycles = cycles
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
