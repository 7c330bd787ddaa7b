package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
)

// AssetHandler exposes the managed asset inventory.
type AssetHandler struct {
	Assets ports.AssetRepository
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assets ports.AssetRepository) *AssetHandler {
	return &AssetHandler{Assets: assets}
}

// HandleList returns the full asset inventory.
func (h *AssetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Assets.ListAssets(r.Context())
	if err != nil {
		log.Printf("Failed to list assets: %v", err)
		http.Error(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"assets": assets})
}

// HandleGet returns a single asset by ID.
func (h *AssetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	asset, err := h.Assets.GetAsset(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get asset %s: %v", id, err)
		http.Error(w, "Failed to get asset", http.StatusInternalServerError)
		return
	}
	if asset == nil {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(asset)
}

// HandleSave creates or updates an asset. A missing ID gets a generated one.
func (h *AssetHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var asset domain.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}
	if asset.DataSensitivity == "" {
		asset.DataSensitivity = domain.ImportanceMedium
	}
	if asset.BusinessCriticality == "" {
		asset.BusinessCriticality = domain.ImportanceMedium
	}
	if asset.LastSeen.IsZero() {
		asset.LastSeen = time.Now().UTC()
	}

	if err := h.Assets.SaveAsset(r.Context(), asset); err != nil {
		log.Printf("Failed to save asset %s: %v", asset.ID, err)
		http.Error(w, "Failed to save asset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(asset)
}
