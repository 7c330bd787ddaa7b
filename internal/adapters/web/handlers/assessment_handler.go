package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/threatwatch-io/threatwatch/internal/core/ports"
)

// AssessmentHandler serves the persisted analysis output for a threat.
type AssessmentHandler struct {
	Associations ports.AssociationRepository
	Assessments  ports.AssessmentRepository
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(associations ports.AssociationRepository, assessments ports.AssessmentRepository) *AssessmentHandler {
	return &AssessmentHandler{Associations: associations, Assessments: assessments}
}

// HandleAssociations returns the stored associations for a threat.
func (h *AssessmentHandler) HandleAssociations(w http.ResponseWriter, r *http.Request) {
	threatID := mux.Vars(r)["id"]

	associations, err := h.Associations.GetAssociationsByThreat(r.Context(), threatID)
	if err != nil {
		log.Printf("Failed to list associations for threat %s: %v", threatID, err)
		http.Error(w, "Failed to list associations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"threat_id":    threatID,
		"associations": associations,
	})
}

// HandleAssessments returns the stored risk assessments for a threat.
func (h *AssessmentHandler) HandleAssessments(w http.ResponseWriter, r *http.Request) {
	threatID := mux.Vars(r)["id"]

	assessments, err := h.Assessments.GetAssessmentsByThreat(r.Context(), threatID)
	if err != nil {
		log.Printf("Failed to list assessments for threat %s: %v", threatID, err)
		http.Error(w, "Failed to list assessments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"threat_id":   threatID,
		"assessments": assessments,
	})
}
