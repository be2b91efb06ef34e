package apperr

import "time"

// Envelope is the JSON error body every endpoint returns, kept wire-compatible
// with the companion clients.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Path       string `json:"path"`
	Exception  string `json:"exception"`
	Timestamp  string `json:"timestamp"`
}

// EnvelopeFor builds the wire body for err on the given request path.
func EnvelopeFor(err error, path string) Envelope {
	kind := KindOf(err)
	return Envelope{
		StatusCode: kind.HTTPStatus(),
		Message:    Message(err),
		Path:       path,
		Exception:  kind.Exception(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}
