// Package identity defines the identity-provider boundary: signup,
// email confirmation, password auth, token refresh and revocation.
// The rest of the application only sees the Provider interface; the
// shipped implementation keeps identities in the local database and
// signs tokens symmetrically.
package identity

import (
	"context"
	"errors"
)

// Failure taxonomy the auth layer relies on. Anything not listed here is
// treated as a provider or transport failure and wrapped through.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrInvalidCode        = errors.New("invalid confirmation code")
	ErrCodeExpired        = errors.New("confirmation code expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotConfirmed       = errors.New("email not confirmed")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// TokenTriple is the set of bearer tokens issued per session.
type TokenTriple struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
}

// ClientMeta carries device metadata recorded alongside a session.
type ClientMeta struct {
	UserAgent string
	IP        string
}

type Provider interface {
	// SignUp registers a pending identity and sends a confirmation code.
	// No tokens are issued until the email is confirmed.
	SignUp(ctx context.Context, name, email, password string) error

	// ConfirmSignUp consumes a confirmation code.
	ConfirmSignUp(ctx context.Context, email, code string) error

	// InitiateAuth performs the password grant and returns a token triple.
	InitiateAuth(ctx context.Context, email, password string, meta ClientMeta) (*TokenTriple, error)

	// Refresh exchanges a live refresh token for fresh access and id
	// tokens; the refresh token itself is echoed back unchanged.
	Refresh(ctx context.Context, refreshToken string) (*TokenTriple, error)

	// GetUserEmail resolves the email behind a valid access token.
	GetUserEmail(ctx context.Context, accessToken string) (string, error)

	// GlobalSignOut revokes every live session of the token's subject.
	GlobalSignOut(ctx context.Context, accessToken string) error
}
