package types

import "errors"

// Sentinel errors for tpaconsole operations.
//
// The pure rule core never returns these; they surface at the HTTP/gRPC
// boundary and from the upstream client.
var (
	// ErrInvalidFactors indicates a factors field that is neither an object nor an entry list.
	ErrInvalidFactors = errors.New("factors must be a JSON object or a list of {key, value} entries")

	// ErrTooManyFactors indicates a draft exceeds MaxFactorEntries.
	ErrTooManyFactors = errors.New("too many factor entries")

	// ErrInvalidBody indicates a request body that is not valid JSON for its endpoint.
	ErrInvalidBody = errors.New("invalid request body")

	// ErrUpstreamUnavailable indicates the backend could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream backend unavailable")

	// ErrUpstreamStatus indicates the backend answered with a non-2xx status.
	ErrUpstreamStatus = errors.New("upstream backend returned an error status")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingFactorCode indicates a condition without a factor code.
	ErrMissingFactorCode = errors.New("condition factor code is required")

	// ErrUnknownOperator indicates an operator outside EQUALS/GREATER_THAN/LESS_THAN/BETWEEN/IN.
	ErrUnknownOperator = errors.New("unknown condition operator")

	// ErrMissingExactValue indicates a single-value operator without valueExact.
	ErrMissingExactValue = errors.New("condition requires an exact value")

	// ErrMissingRange indicates BETWEEN without both bounds.
	ErrMissingRange = errors.New("BETWEEN condition requires valueFrom and valueTo")

	// ErrMissingValues indicates IN without values.
	ErrMissingValues = errors.New("IN condition requires at least one value")

	// ErrTooManyConditionValues indicates an IN list exceeding MaxConditionValues.
	ErrTooManyConditionValues = errors.New("IN condition has too many values")
)
