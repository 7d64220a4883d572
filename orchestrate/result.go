package orchestrate

import (
	"time"

	"github.com/rotationalphysics495/plantops/datasource"
)

// User-facing messages for responses that carry no data. The real cause
// is logged server-side; these stay deliberately vague.
const (
	// MsgUnknownTool is returned when no registered tool matches.
	MsgUnknownTool = "I don't have a tool that can answer that."
	// MsgUnavailable is returned when execution fails for any reason.
	MsgUnavailable = "I couldn't retrieve that data right now. Please try again."
)

// Request describes one tool invocation.
type Request struct {
	// Tool is the registered tool name.
	Tool string `json:"tool"`
	// Params are the declared tool parameters. Reserved control keys are
	// stripped before cache-key derivation.
	Params map[string]any `json:"params,omitempty"`
	// Caller identifies the requesting principal; distinct callers never
	// share cache entries.
	Caller string `json:"caller"`
	// ForceRefresh bypasses any cached response and re-executes.
	ForceRefresh bool `json:"force_refresh,omitempty"`
}

// Response is the structured result of an invocation. It is always
// populated, including on failure; callers never see a raw error.
type Response struct {
	// OK reports whether the invocation produced data.
	OK bool `json:"ok"`
	// Message carries the user-facing text when OK is false.
	Message string `json:"message,omitempty"`
	// Tool echoes the requested tool name.
	Tool string `json:"tool"`
	// Data holds the result rows. Nil when OK is false.
	Data []map[string]any `json:"data,omitempty"`
	// Citations lists the provenance of every source query that produced
	// Data. Empty, never fabricated, when no data was retrieved.
	Citations []datasource.Provenance `json:"citations"`
	// Cached reports whether Data was served from the response cache.
	Cached bool `json:"cached"`
	// CachedAt is the write time of the served cache entry. Zero unless
	// Cached is true.
	CachedAt time.Time `json:"cached_at,omitzero"`
	// RequestID uniquely identifies this invocation in logs and traces.
	RequestID string `json:"request_id"`
	// Duration is the wall-clock time spent answering.
	Duration time.Duration `json:"duration"`
}

// envelope is the unit stored in the cache: the rows plus the citations
// captured at execution time, so hits replay provenance verbatim.
type envelope struct {
	Rows      []map[string]any
	Citations []datasource.Provenance
}
