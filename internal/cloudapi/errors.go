package cloudapi

import "errors"

// Sentinel errors for cloud API operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, cloudapi.ErrAuthorization) {
//	    // Token rejected; no point retrying
//	}
var (
	// ErrCommunication indicates a transport failure or an unexpected
	// response from the cloud API. Retryable.
	ErrCommunication = errors.New("cloudapi: communication failed")

	// ErrAuthorization indicates the API rejected the bearer token
	// (HTTP 401 or 403). Not retryable without a new token.
	ErrAuthorization = errors.New("cloudapi: authorization failed")

	// ErrStreamClosed indicates the server ended the event stream.
	// The caller should reconnect after the configured retry delay.
	ErrStreamClosed = errors.New("cloudapi: event stream closed")
)
