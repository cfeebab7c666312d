package errors

// Code is a machine-readable error code of the form CATEGORY_XXX.
// Codes are stable once assigned.
type Code string

// Categories and their HTTP mapping:
//
//	VAL_xxx     - 400 Bad Request
//	AUTH_xxx    - 401 Unauthorized
//	AUTHZ_xxx   - 403 Forbidden
//	INT_xxx     - 500 Internal Server Error
//	UNAVAIL_xxx - 503 Service Unavailable
//	TIMEOUT_xxx - 504 Gateway Timeout
const (
	// CodeValidation indicates a general validation failure.
	CodeValidation Code = "VAL_001"

	// CodeValidationRequired indicates a required field is missing.
	CodeValidationRequired Code = "VAL_002"

	// CodeAuthentication indicates a general authentication failure. The
	// verifier returns this code for every rejected token whose failure
	// is not one of the more specific AUTH codes below.
	CodeAuthentication Code = "AUTH_001"

	// CodeAuthenticationExpired indicates the token has expired.
	CodeAuthenticationExpired Code = "AUTH_002"

	// CodeAuthenticationInvalid indicates the token is not a structurally
	// valid JWT (wrong segment count, bad encoding, undecodable payload).
	CodeAuthenticationInvalid Code = "AUTH_003"

	// CodeAuthenticationMissing indicates that no usable token was
	// attached to the request.
	CodeAuthenticationMissing Code = "AUTH_004"

	// CodeAuthenticationDomainMissing indicates the token carries no
	// domain identifier, so no verification key can be selected.
	CodeAuthenticationDomainMissing Code = "AUTH_005"

	// CodeAuthorization indicates a general authorization failure.
	CodeAuthorization Code = "AUTHZ_001"

	// CodeInternal indicates a general internal error.
	CodeInternal Code = "INT_001"

	// CodeInternalCache indicates a cache backend operation failed.
	CodeInternalCache Code = "INT_002"

	// CodeInternalConfiguration indicates a configuration error.
	CodeInternalConfiguration Code = "INT_003"

	// CodeUnavailable indicates a general service unavailable error.
	CodeUnavailable Code = "UNAVAIL_001"

	// CodeUnavailableDependency indicates a dependent service (identity
	// service, Redis) could not be reached or returned a failure.
	CodeUnavailableDependency Code = "UNAVAIL_002"

	// CodeUnavailableKeyResolution indicates the domain public key could
	// not be resolved from the identity service.
	CodeUnavailableKeyResolution Code = "UNAVAIL_004"

	// CodeUnavailablePermissionResolution indicates the app permission
	// check against the identity service failed.
	CodeUnavailablePermissionResolution Code = "UNAVAIL_005"

	// CodeTimeout indicates a general timeout error.
	CodeTimeout Code = "TIMEOUT_001"

	// CodeTimeoutDependency indicates a call to a dependent service timed out.
	CodeTimeoutDependency Code = "TIMEOUT_003"
)

// String returns the string representation of the error code.
func (c Code) String() string {
	return string(c)
}

// Category returns the category prefix of the error code (e.g., "AUTH").
func (c Code) Category() string {
	s := string(c)
	for i, r := range s {
		if r == '_' {
			return s[:i]
		}
	}
	return s
}
