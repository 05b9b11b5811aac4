package resilientgraphql

import "encoding/json"

// NormalizedRequest is what a Transport sends: one POST of a GraphQL payload.
type NormalizedRequest struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	Body     []byte
}

// NormalizedResponse is what a Transport returns for any completed HTTP exchange,
// regardless of status code.
type NormalizedResponse struct {
	StatusCode int
	Headers    map[string]string
	Data       []byte
}

// ThrottleStatus is the cost telemetry a server reports under extensions.cost.
// Pointer fields are nil when the server omitted them.
type ThrottleStatus struct {
	RequestedQueryCost *float64
	ActualQueryCost    *float64

	MaximumAvailable   *float64
	CurrentlyAvailable *float64
	RestoreRate        *float64
}

// ThrottleTelemetry is the subset of ThrottleStatus needed to compute a
// rate-limit wait.
type ThrottleTelemetry struct {
	RequestedCost        float64
	CurrentlyAvailable   float64
	RestoreRatePerSecond float64
}

// graphQLPayload is the wire body: variables are omitted when nil.
type graphQLPayload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func encodePayload(query string, variables map[string]any) ([]byte, error) {
	return json.Marshal(graphQLPayload{Query: query, Variables: variables})
}
