package authstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"
)

// User is the client's view of an account as returned by the auth surface.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Bio          string `json:"bio"`
	IconImageURL string `json:"iconImageUrl"`
}

// TokenTriple is one issued token set.
type TokenTriple struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// Client is a typed client for the auth REST surface. All request
// validation and response decoding happens here, at one boundary, so the
// error taxonomy is raised consistently for every call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithHTTP overrides the underlying HTTP client, for tests and
// custom transports.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	c := NewClient(baseURL)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
	Meta    json.RawMessage `json:"meta"`
}

type envelopeError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

func (c *Client) SignUp(ctx context.Context, name, email, password string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	var data struct {
		User *User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/signup", "",
		map[string]string{"name": name, "email": email, "password": password}, &data)
	if err != nil {
		return nil, err
	}
	if data.User == nil || data.User.ID == "" {
		return nil, &ProviderError{StatusCode: http.StatusCreated, Message: "signup response missing user"}
	}
	return data.User, nil
}

func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return &ValidationError{Reason: "email and code are required"}
	}
	return c.do(ctx, http.MethodPost, "/auth/verify-email", "",
		map[string]string{"email": email, "code": code}, nil)
}

type signInData struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
	TokenTriple
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*User, *TokenTriple, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, nil, err
	}

	var data signInData
	err := c.do(ctx, http.MethodPost, "/auth/signin", "",
		map[string]string{"email": email, "password": password}, &data)
	if err != nil {
		return nil, nil, err
	}
	if data.User == nil || data.User.ID == "" ||
		data.AccessToken == "" || data.IDToken == "" || data.RefreshToken == "" {
		return nil, nil, &ProviderError{StatusCode: http.StatusOK, Message: "signin response missing user or tokens"}
	}
	return data.User, &data.TokenTriple, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenTriple, error) {
	if refreshToken == "" {
		return nil, &ValidationError{Field: "refreshToken", Reason: "required"}
	}

	var triple TokenTriple
	err := c.do(ctx, http.MethodPost, "/auth/refresh", "",
		map[string]string{"refreshToken": refreshToken}, &triple)
	if err != nil {
		return nil, err
	}
	if triple.AccessToken == "" || triple.IDToken == "" || triple.RefreshToken == "" {
		return nil, &ProviderError{StatusCode: http.StatusOK, Message: "refresh response missing tokens"}
	}
	return &triple, nil
}

func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, &AuthError{Code: "NO_CREDENTIAL", Message: "no access token"}
	}

	var data struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", accessToken, nil, &data); err != nil {
		return nil, err
	}
	if data.User == nil || data.User.ID == "" {
		return nil, &ProviderError{StatusCode: http.StatusOK, Message: "me response missing user"}
	}
	return data.User, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return &AuthError{Code: "NO_CREDENTIAL", Message: "no access token"}
	}
	return c.do(ctx, http.MethodPost, "/auth/signout", accessToken, nil, nil)
}

// do performs one request and decodes the response envelope, mapping
// failures onto the package error types. out receives the envelope's data
// payload when non-nil.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &ValidationError{Reason: "encode request: " + err.Error()}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &NetworkError{Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &NetworkError{Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &ProviderError{StatusCode: resp.StatusCode, Message: "malformed response envelope"}
	}

	if resp.StatusCode >= 400 || !env.Success {
		return classifyFailure(resp.StatusCode, env.Error)
	}

	if out != nil {
		if len(env.Data) == 0 {
			return &ProviderError{StatusCode: resp.StatusCode, Message: "response envelope missing data"}
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &ProviderError{StatusCode: resp.StatusCode, Message: "malformed response data: " + err.Error()}
		}
	}
	return nil
}

func classifyFailure(status int, envErr *envelopeError) error {
	code, message := "", fmt.Sprintf("request failed with status %d", status)
	if envErr != nil {
		code = envErr.Code
		if envErr.Message != "" {
			message = envErr.Message
		}
	}

	switch {
	case code == "INVALID_CODE":
		return &InvalidCodeError{Message: message}
	case status == http.StatusNotFound && code == "USER_NOT_FOUND":
		return &ConsistencyError{Message: message}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Code: code, Message: message}
	case status == http.StatusBadRequest && code == "INVALID_OR_EXPIRED_TOKEN":
		return &AuthError{Code: code, Message: message}
	case status == http.StatusBadRequest:
		return &ValidationError{Reason: message}
	default:
		return &ProviderError{StatusCode: status, Code: code, Message: message}
	}
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return &ValidationError{Field: "email", Reason: "invalid address"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Reason: "required"}
	}
	return nil
}
