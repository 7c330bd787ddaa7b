package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
)

// PIRHandler exposes the Priority Intelligence Requirement store.
type PIRHandler struct {
	PIRs ports.PIRRepository
}

// NewPIRHandler creates a new PIRHandler.
func NewPIRHandler(pirs ports.PIRRepository) *PIRHandler {
	return &PIRHandler{PIRs: pirs}
}

// HandleList returns all PIRs. ?enabled=true narrows to enabled ones.
func (h *PIRHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		pirs []domain.PIR
		err  error
	)
	if r.URL.Query().Get("enabled") == "true" {
		pirs, err = h.PIRs.ListEnabledPIRs(r.Context())
	} else {
		pirs, err = h.PIRs.ListPIRs(r.Context())
	}
	if err != nil {
		log.Printf("Failed to list PIRs: %v", err)
		http.Error(w, "Failed to list PIRs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"pirs": pirs})
}

// HandleSave creates or updates a PIR. The condition must carry at least
// one criterion, otherwise risk scoring would reject it later.
func (h *PIRHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var pir domain.PIR
	if err := json.NewDecoder(r.Body).Decode(&pir); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if pir.Condition.IsZero() {
		http.Error(w, "PIR condition must carry at least one criterion", http.StatusBadRequest)
		return
	}
	if pir.ID == "" {
		pir.ID = uuid.New().String()
	}
	if pir.Priority == "" {
		pir.Priority = domain.PIRPriorityMedium
	}

	if err := h.PIRs.SavePIR(r.Context(), pir); err != nil {
		log.Printf("Failed to save PIR %s: %v", pir.ID, err)
		http.Error(w, "Failed to save PIR", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(pir)
}
