package google

import "fmt"

// API status values returned in every XML response.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusInvalidRequest = "INVALID_REQUEST"
)

// APIStatusError is returned when the API answers with a status other than
// OK or ZERO_RESULTS. It aborts the harvest.
type APIStatusError struct {
	Endpoint string
	Status   string
	Message  string
}

func newAPIStatusError(endpoint string, env statusEnvelope) *APIStatusError {
	return &APIStatusError{Endpoint: endpoint, Status: env.Status, Message: env.ErrorMessage}
}

func (e *APIStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("google: %s returned status %s", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("google: %s returned status %s: %s", e.Endpoint, e.Status, e.Message)
}
