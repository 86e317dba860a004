package handlers

import (
	"net/http"

	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/web/middleware"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse describes what a kiosk needs to submit valid requests
type ConfigResponse struct {
	Tenant        string       `json:"tenant"`
	DescriptorDim int          `json:"descriptor_dim"`
	MatchStrategy string       `json:"match_strategy"`
	OffsetMinutes int          `json:"offset_minutes"`
	GeoFence      GeoFenceInfo `json:"geofence"`
}

// GeoFenceInfo is the attendance zone of a tenant
type GeoFenceInfo struct {
	Enabled      bool    `json:"enabled"`
	CenterLat    float64 `json:"center_lat,omitempty"`
	CenterLon    float64 `json:"center_lon,omitempty"`
	RadiusMeters float64 `json:"radius_meters,omitempty"`
}

// Get returns the configuration that applies to the request's tenant
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	fence := h.config.GeoFenceFor(tenant)

	info := GeoFenceInfo{Enabled: fence.Enabled}
	if fence.Enabled {
		info.CenterLat = fence.CenterLat
		info.CenterLon = fence.CenterLon
		info.RadiusMeters = fence.RadiusMeters
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		Tenant:        tenant,
		DescriptorDim: h.config.Matching.DescriptorDim,
		MatchStrategy: h.config.Matching.Strategy,
		OffsetMinutes: h.config.Calendar.OffsetMinutes,
		GeoFence:      info,
	})
}
