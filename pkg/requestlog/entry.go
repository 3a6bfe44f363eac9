// Package requestlog captures structured records of resolved requests
// for inspection by a logging collaborator. The core offers one Entry
// per resolution; the collaborator decides format and destination.
package requestlog

import "time"

// Protocol labels for log entries.
const (
	ProtocolREST    = "rest"
	ProtocolGraphQL = "graphql"
)

// Entry records one resolved request.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// RequestID is the identifier of the observed request.
	RequestID string `json:"requestId"`

	// Timestamp is when resolution started.
	Timestamp time.Time `json:"timestamp"`

	// Protocol is the matched handler's protocol (rest, graphql).
	Protocol string `json:"protocol"`

	// Method is the HTTP method of the observed request.
	Method string `json:"method"`

	// URL is the full request target.
	URL string `json:"url"`

	// OperationName is the GraphQL operation name, when applicable.
	OperationName string `json:"operationName,omitempty"`

	// HandlerInfo is the matched handler's descriptive line.
	HandlerInfo string `json:"handlerInfo,omitempty"`

	// ResponseStatus is the synthesized status code, 0 when the
	// handler matched but produced no response.
	ResponseStatus int `json:"responseStatus"`

	// Mocked reports whether the response carries the mock marker
	// header. False for resolver-fault responses.
	Mocked bool `json:"mocked"`

	// DurationMs is the resolution time in milliseconds.
	DurationMs int `json:"durationMs"`

	// Error holds the resolver fault message, when one occurred.
	Error string `json:"error,omitempty"`
}
