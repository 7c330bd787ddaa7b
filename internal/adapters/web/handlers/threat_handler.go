package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/threatwatch-io/threatwatch/internal/core/ports"
	"github.com/threatwatch-io/threatwatch/internal/core/services/recompute"
	"github.com/threatwatch-io/threatwatch/internal/core/services/risk"
)

// ThreatHandler exposes the threat store and the analysis pipeline.
type ThreatHandler struct {
	Threats  ports.ThreatRepository
	Pipeline *recompute.Service
}

// NewThreatHandler creates a new ThreatHandler.
func NewThreatHandler(threats ports.ThreatRepository, pipeline *recompute.Service) *ThreatHandler {
	return &ThreatHandler{Threats: threats, Pipeline: pipeline}
}

// HandleList returns all stored threats.
func (h *ThreatHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	threats, err := h.Threats.List(r.Context())
	if err != nil {
		log.Printf("Failed to list threats: %v", err)
		http.Error(w, "Failed to list threats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"threats": threats})
}

// HandleGet returns a single threat by ID.
func (h *ThreatHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	threat, err := h.Threats.GetByID(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get threat %s: %v", id, err)
		http.Error(w, "Failed to get threat", http.StatusInternalServerError)
		return
	}
	if threat == nil {
		http.Error(w, "Threat not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(threat)
}

// HandleAnalyze runs association analysis plus risk scoring for one threat.
func (h *ThreatHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := mux.Vars(r)["id"]

	result, err := h.Pipeline.AnalyzeThreat(r.Context(), id)
	switch {
	case errors.Is(err, recompute.ErrThreatNotFound):
		http.Error(w, "Threat not found", http.StatusNotFound)
		return
	case errors.Is(err, risk.ErrInvalidPIRCondition):
		http.Error(w, "A PIR in the store has an empty condition", http.StatusUnprocessableEntity)
		return
	case err != nil:
		log.Printf("Analysis of threat %s failed: %v", id, err)
		http.Error(w, "Analysis failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleRecompute re-runs the pipeline over every stored threat.
func (h *ThreatHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.Pipeline.RecomputeAll(r.Context(), "api")
	if err != nil {
		log.Printf("Batch recompute failed: %v", err)
		http.Error(w, "Recompute failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
