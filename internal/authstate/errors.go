package authstate

import "fmt"

// ValidationError reports input rejected before or by the signup surface,
// such as a malformed email, a weak password, or a duplicate account.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// AuthError reports rejected or expired credentials. Code carries the
// server's error code when the failure came over the wire.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return "authentication: " + e.Message
}

// InvalidCodeError reports a wrong or expired email confirmation code.
type InvalidCodeError struct {
	Message string
}

func (e *InvalidCodeError) Error() string {
	return "invalid code: " + e.Message
}

// ConsistencyError reports a valid session whose local user record is
// missing on the server.
type ConsistencyError struct {
	Message string
}

func (e *ConsistencyError) Error() string {
	return "consistency: " + e.Message
}

// ProviderError reports a server-side failure that is none of the above.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider: status %d code %s: %s", e.StatusCode, e.Code, e.Message)
}

// NetworkError wraps a transport failure before any response was decoded.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
