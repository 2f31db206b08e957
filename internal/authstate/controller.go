// Package authstate is the client-side session container. It owns the
// persisted token triple and the current user, and exposes the auth
// actions as methods on a single-writer controller: every transition
// happens under one mutex, so concurrent actions serialize instead of
// racing over the token store.
package authstate

import (
	"context"
	"errors"
	"sync"
)

type State int

const (
	// StateLoading means token presence is unknown; Restore has not run.
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

type Controller struct {
	mu     sync.Mutex
	client *Client
	store  TokenStore
	state  State
	user   *User
}

func NewController(client *Client, store TokenStore) *Controller {
	return &Controller{
		client: client,
		store:  store,
		state:  StateLoading,
	}
}

// State returns the current state. Before Restore has completed it
// reports StateLoading.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns the cached user, nil unless authenticated.
func (c *Controller) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Signup registers a new account. No session is issued; the account sits
// unverified until VerifyEmail succeeds. State is not changed.
func (c *Controller) Signup(ctx context.Context, name, email, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.client.SignUp(ctx, name, email, password)
	return err
}

// VerifyEmail submits the confirmation code for a pending signup.
func (c *Controller) VerifyEmail(ctx context.Context, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.client.VerifyEmail(ctx, email, code)
}

// Login exchanges credentials for a token triple, persists it, and
// resolves the user with a follow-up fetch. Any failure clears the stored
// tokens so the caller is never left partially authenticated.
func (c *Controller) Login(ctx context.Context, email, password string) (*TokenTriple, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, triple, err := c.client.SignIn(ctx, email, password)
	if err != nil {
		c.clearLocked()
		return nil, err
	}
	if err := c.persistLocked(triple); err != nil {
		c.clearLocked()
		return nil, err
	}

	user, err := c.client.Me(ctx, triple.AccessToken)
	if err != nil {
		c.clearLocked()
		return nil, err
	}

	c.state = StateAuthenticated
	c.user = user
	return triple, nil
}

// Logout revokes the session remotely on a best-effort basis, then
// unconditionally clears local tokens. Calling it while anonymous is a
// no-op.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	access, _ := c.store.Get(KeyAccessToken)
	if access != "" {
		// Remote revoke failures are swallowed; local logout must succeed.
		_ = c.client.SignOut(ctx, access)
	}
	c.clearLocked()
	return nil
}

// Refetch re-resolves the current user from the stored access token,
// used after profile mutations.
func (c *Controller) Refetch(ctx context.Context) (*User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	access, err := c.store.Get(KeyAccessToken)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, &AuthError{Code: "NO_CREDENTIAL", Message: "not logged in"}
	}

	user, err := c.client.Me(ctx, access)
	if err != nil {
		return nil, err
	}
	c.state = StateAuthenticated
	c.user = user
	return user, nil
}

// Restore resolves the startup session. A stored access token is the only
// restore signal. If the user fetch fails with invalid or expired
// credentials, exactly one refresh exchange is attempted before the
// tokens are deleted and the state resolves to anonymous. Restore never
// fails for an invalid session, only for transport errors.
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	access, err := c.store.Get(KeyAccessToken)
	if err != nil {
		return err
	}
	if access == "" {
		c.clearLocked()
		return nil
	}

	user, err := c.client.Me(ctx, access)
	if err == nil {
		c.state = StateAuthenticated
		c.user = user
		return nil
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		// Tokens may still be good; keep them and report the failure.
		c.state = StateAnonymous
		c.user = nil
		return err
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		if refreshed := c.tryRefreshLocked(ctx); refreshed {
			return nil
		}
	}

	c.clearLocked()
	return nil
}

// tryRefreshLocked performs the single refresh exchange allowed during
// Restore. Returns true when the session was renewed.
func (c *Controller) tryRefreshLocked(ctx context.Context) bool {
	refresh, err := c.store.Get(KeyRefreshToken)
	if err != nil || refresh == "" {
		return false
	}

	triple, err := c.client.Refresh(ctx, refresh)
	if err != nil {
		return false
	}
	if err := c.persistLocked(triple); err != nil {
		return false
	}

	user, err := c.client.Me(ctx, triple.AccessToken)
	if err != nil {
		return false
	}
	c.state = StateAuthenticated
	c.user = user
	return true
}

func (c *Controller) persistLocked(triple *TokenTriple) error {
	if err := c.store.Set(KeyAccessToken, triple.AccessToken); err != nil {
		return err
	}
	if err := c.store.Set(KeyIDToken, triple.IDToken); err != nil {
		return err
	}
	return c.store.Set(KeyRefreshToken, triple.RefreshToken)
}

func (c *Controller) clearLocked() {
	_ = c.store.Delete(KeyAccessToken)
	_ = c.store.Delete(KeyIDToken)
	_ = c.store.Delete(KeyRefreshToken)
	c.state = StateAnonymous
	c.user = nil
}
