package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeTokenExpired tags signature-valid tokens past their expiry.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed tags tokens that fail signature or structure checks.
	TextCodeTokenMalformed = "TOKEN_MALFORMED"

	textCodeDuplicateEmail         = "DUPLICATE_EMAIL"
	textCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	textCodeInvalidRefreshToken    = "INVALID_REFRESH_TOKEN"
	textCodePasswordMismatch       = "PASSWORD_MISMATCH"
	textCodeNoMatchingVerification = "NO_MATCHING_VERIFICATION"
	textCodeTooManyLoginAttempts   = "TOO_MANY_LOGIN_ATTEMPTS"
	textCodeUserSuspended          = "USER_SUSPENDED"
	textCodeUserDisabled           = "USER_DISABLED"
	textCodeUserArchived           = "USER_ARCHIVED"
	textCodeUserPending            = "USER_PENDING"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenExpired is returned when a token signature verifies but the token
// is past its expiry. Callers may log it differently from ErrTokenMalformed
// but must treat both as an authentication failure.
var ErrTokenExpired = goerrors.New("authentication token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures, unexpected algorithms, and any
// other parse failure.
var ErrTokenMalformed = goerrors.New("invalid authentication token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateEmail is returned by sign up when the email is already registered.
var ErrDuplicateEmail = goerrors.New("user already registered with this email", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is returned by sign in for an unknown email or a
// password mismatch. Both cases share one error so callers cannot tell which
// occurred.
var ErrInvalidCredentials = goerrors.New("bad email or password", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidRefreshToken is returned when a refresh token fails validation or
// no longer matches the stored value for its subject (a superseded token).
var ErrInvalidRefreshToken = goerrors.New("refresh token not valid", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidRefreshToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrPasswordMismatch is returned by password updates when the current
// password does not verify.
var ErrPasswordMismatch = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode(textCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrNoMatchingVerification is returned when no live verification token
// matches a (user, token) pair: unknown, expired, or already consumed.
var ErrNoMatchingVerification = goerrors.New("no email to verify by this token", goerrors.CategoryNotFound).
	WithTextCode(textCodeNoMatchingVerification).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the typed variant of the bcrypt mismatch error.
var ErrMismatchedHashAndPassword = goerrors.New("hash and password mismatch", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned when the login attempt counter trips
// the cool down threshold.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryAuth).
	WithTextCode(textCodeTooManyLoginAttempts).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserSuspended is returned when a suspended account attempts to authenticate.
var ErrUserSuspended = goerrors.New("user account is suspended", goerrors.CategoryAuthz).
	WithTextCode(textCodeUserSuspended).
	WithCode(goerrors.CodeForbidden)

// ErrUserDisabled is returned when a disabled account attempts to authenticate.
var ErrUserDisabled = goerrors.New("user account is disabled", goerrors.CategoryAuthz).
	WithTextCode(textCodeUserDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrUserArchived is returned when an archived account attempts to authenticate.
var ErrUserArchived = goerrors.New("user account is archived", goerrors.CategoryAuthz).
	WithTextCode(textCodeUserArchived).
	WithCode(goerrors.CodeForbidden)

// ErrUserPending is returned when an account that has not verified its email
// attempts an operation that requires an active account.
var ErrUserPending = goerrors.New("user account is pending verification", goerrors.CategoryAuthz).
	WithTextCode(textCodeUserPending).
	WithCode(goerrors.CodeForbidden)

// statusAuthError maps a lifecycle status to the auth error it should surface,
// or nil when the status permits authentication.
func statusAuthError(status UserStatus) error {
	switch status {
	case UserStatusSuspended:
		return ErrUserSuspended
	case UserStatusDisabled:
		return ErrUserDisabled
	case UserStatusArchived:
		return ErrUserArchived
	default:
		return nil
	}
}

// isUniqueViolation reports whether err is a database unique constraint
// violation. Matched on the driver message because bun surfaces driver
// errors verbatim; covers sqlite and postgres.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
