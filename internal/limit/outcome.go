package limit

import "fmt"

// Kind classifies the result of one fetch-and-decode cycle.
type Kind int

const (
	// Success means the remote value was fetched, decoded and accepted.
	Success Kind = iota
	// TransportError covers network-level failures reaching the service.
	TransportError
	// HTTPStatusError means the service answered outside [200,299].
	HTTPStatusError
	// DecodeError covers unparsable JSON, a missing path, a non-numeric
	// value, or a non-positive value.
	DecodeError
)

// String returns the metric label for the outcome kind.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case TransportError:
		return "transport_error"
	case HTTPStatusError:
		return "http_status_error"
	case DecodeError:
		return "decode_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the tagged result of one refresh cycle. Every outcome, success
// or failure, carries an effective limit: the decoded value on success, the
// static fallback otherwise.
type Outcome struct {
	Kind       Kind
	Limit      float64
	StatusCode int   // set for HTTPStatusError
	Err        error // set for every non-success kind
}

// OK reports whether the cycle produced a freshly decoded remote value.
func (o Outcome) OK() bool {
	return o.Kind == Success
}
