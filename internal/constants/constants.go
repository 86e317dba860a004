// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// DefaultMatchThreshold is the Euclidean distance below which a descriptor
	// is accepted as the enrolled employee. Lower values = stricter matching.
	DefaultMatchThreshold = 0.5

	// DefaultDescriptorDim is the descriptor length produced by face-api.js
	// style recognition networks.
	DefaultDescriptorDim = 128

	// MatchStrategyFirst accepts the first roster entry under the threshold.
	MatchStrategyFirst = "first"

	// MatchStrategyHNSW accepts the approximate nearest neighbour under the threshold.
	MatchStrategyHNSW = "hnsw"
)

// HNSW index parameters for face descriptors
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	HNSWEfSearch = 64

	// HNSWSearchCandidates is the number of neighbours checked against the threshold.
	HNSWSearchCandidates = 5
)

// Calendar constants
const (
	// DefaultCivilOffsetMinutes is the fixed civil day offset (UTC+5:30).
	DefaultCivilOffsetMinutes = 330

	// CivilDateLayout formats a civil day key.
	CivilDateLayout = "2006-01-02"
)

// Geofence constants
const (
	// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
	EarthRadiusMeters = 6371e3

	// DefaultGeoFenceRadiusMeters is the attendance zone radius when none is configured.
	DefaultGeoFenceRadiusMeters = 100
)

// HTTP constants
const (
	// MaxRequestBodySize caps JSON request bodies (5MB).
	MaxRequestBodySize = 5 << 20

	// DefaultSubmitRatePerMinute is the per-client attendance submission limit.
	DefaultSubmitRatePerMinute = 30

	// TenantHeader carries the tenant key on kiosk requests.
	TenantHeader = "X-Tenant"
)
