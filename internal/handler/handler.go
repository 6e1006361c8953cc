package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"fabricview/internal/codec"
	"fabricview/internal/config"
	"fabricview/internal/devices"
	"fabricview/internal/domain"
	"fabricview/internal/session"
)

// Viewer is the session the handlers drive
type Viewer interface {
	Switch(ctx context.Context, source string) error
	Dispatch(in session.Input) error
	Snapshot(ctx context.Context) (session.Frame, error)
	Topology(ctx context.Context) (*domain.Graph, string, error)
	Bus() *session.EventBus
}

// ViewHandler handles viewer API requests
type ViewHandler struct {
	viewer   Viewer
	datasets []config.Dataset
	devices  devices.Lookuper
}

// NewViewHandler creates a new view handler
func NewViewHandler(viewer Viewer, datasets []config.Dataset, lookup devices.Lookuper) *ViewHandler {
	return &ViewHandler{
		viewer:   viewer,
		datasets: datasets,
		devices:  lookup,
	}
}

// Register mounts the viewer API and the interactive websocket on mux
func (h *ViewHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/datasets", h.ListDatasets)
	mux.HandleFunc("POST /api/datasets", h.SelectDataset)
	mux.HandleFunc("GET /api/frame", h.GetFrame)
	mux.HandleFunc("GET /api/topology", h.GetTopology)
	mux.HandleFunc("GET /api/devices/{vendor}/{device}", h.LookupDevice)
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /ws", h.ServeWS)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CatalogResponse lists the selectable datasets
type CatalogResponse struct {
	Datasets []config.Dataset `json:"datasets"`
	Current  string           `json:"current"`
}

// SwitchRequest selects a dataset by source
type SwitchRequest struct {
	Source string `json:"source"`
}

// DeviceResponse is the result of a device lookup
type DeviceResponse struct {
	VendorID string `json:"vendor_id"`
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
}

// ListDatasets returns the dataset catalogue
func (h *ViewHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	frame, err := h.viewer.Snapshot(r.Context())
	if err != nil {
		log.Printf("Failed to get frame: %v", err)
		writeError(w, "Failed to get current dataset", err.Error(), http.StatusServiceUnavailable)
		return
	}

	datasets := h.datasets
	if datasets == nil {
		datasets = []config.Dataset{}
	}
	writeJSON(w, CatalogResponse{Datasets: datasets, Current: frame.Dataset}, http.StatusOK)
}

// SelectDataset requests a dataset switch. An empty source is accepted and
// ignored, leaving the current view in place.
func (h *ViewHandler) SelectDataset(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.viewer.Switch(r.Context(), req.Source); err != nil {
		log.Printf("Failed to switch dataset: %v", err)
		writeError(w, "Failed to switch dataset", err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, req, http.StatusAccepted)
}

// GetFrame returns the current frame
func (h *ViewHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	frame, err := h.viewer.Snapshot(r.Context())
	if err != nil {
		log.Printf("Failed to get frame: %v", err)
		writeError(w, "Failed to get frame", err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, frame, http.StatusOK)
}

// GetTopology returns the displayed topology document as JSON, or YAML
// with ?format=yaml
func (h *ViewHandler) GetTopology(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	c, ok := codec.ForFormat(format)
	if !ok {
		writeError(w, "Unsupported format", format, http.StatusBadRequest)
		return
	}

	graph, source, err := h.viewer.Topology(r.Context())
	if err != nil {
		log.Printf("Failed to get topology: %v", err)
		writeError(w, "Failed to get topology", err.Error(), http.StatusServiceUnavailable)
		return
	}
	if graph == nil {
		writeError(w, "No dataset loaded", "select a dataset first", http.StatusNotFound)
		return
	}

	if c.Format() == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Header().Set("X-Fabricview-Dataset", source)

	if err := c.Export(graph, w); err != nil {
		log.Printf("Failed to export topology: %v", err)
	}
}

// LookupDevice resolves /api/devices/{vendor}/{device}. Ids are hex, with
// or without a 0x prefix.
func (h *ViewHandler) LookupDevice(w http.ResponseWriter, r *http.Request) {
	vendorID, err := parseHexID(r.PathValue("vendor"))
	if err != nil {
		writeError(w, "Invalid vendor id", err.Error(), http.StatusBadRequest)
		return
	}
	deviceID, err := parseHexID(r.PathValue("device"))
	if err != nil {
		writeError(w, "Invalid device id", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, DeviceResponse{
		VendorID: "0x" + strconv.FormatUint(uint64(vendorID), 16),
		DeviceID: "0x" + strconv.FormatUint(uint64(deviceID), 16),
		Name:     h.devices.Lookup(vendorID, deviceID),
	}, http.StatusOK)
}

// Health reports liveness
func (h *ViewHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func parseHexID(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if s == "" {
		return 0, errors.New("empty id")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
