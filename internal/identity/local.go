package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/repository"
	"github.com/aki-13627/animalia/internal/security"
)

const (
	minPasswordLength  = 8
	verificationDigits = 6
)

// LocalProvider implements Provider against the local database: bcrypt
// credentials, hashed one-time confirmation codes, HS256 token triples and
// a session row per issued refresh token.
type LocalProvider struct {
	creds    repository.LocalCredentialRepository
	codes    repository.VerificationTokenRepository
	sessions repository.SessionRepository
	jwt      *security.JWTManager
	notifier EmailVerificationNotifier

	accessTTL  time.Duration
	refreshTTL time.Duration
	codeTTL    time.Duration
	pepper     string
}

func NewLocalProvider(
	creds repository.LocalCredentialRepository,
	codes repository.VerificationTokenRepository,
	sessions repository.SessionRepository,
	jwt *security.JWTManager,
	notifier EmailVerificationNotifier,
	accessTTL, refreshTTL, codeTTL time.Duration,
	pepper string,
) *LocalProvider {
	return &LocalProvider{
		creds:      creds,
		codes:      codes,
		sessions:   sessions,
		jwt:        jwt,
		notifier:   notifier,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		codeTTL:    codeTTL,
		pepper:     pepper,
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, name, email, password string) error {
	if err := checkPasswordPolicy(password); err != nil {
		return err
	}

	exists, err := p.creds.ExistsEmail(email)
	if err != nil {
		return fmt.Errorf("check existing credential: %w", err)
	}
	if exists {
		return ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	cred := &domain.LocalCredential{Email: email, Name: name, PasswordHash: hash}
	if err := p.creds.Create(cred); err != nil {
		return fmt.Errorf("create credential: %w", err)
	}

	return p.issueVerificationCode(ctx, cred.Email)
}

func (p *LocalProvider) issueVerificationCode(ctx context.Context, email string) error {
	now := time.Now().UTC()
	if err := p.codes.InvalidateActiveByEmailPurpose(email, domain.VerificationPurposeEmail, now); err != nil {
		return fmt.Errorf("invalidate previous codes: %w", err)
	}

	code, err := security.NewNumericCode(verificationDigits)
	if err != nil {
		return err
	}
	expiresAt := now.Add(p.codeTTL)
	token := &domain.VerificationToken{
		Email:     email,
		CodeHash:  security.HashVerificationCode(code),
		Purpose:   domain.VerificationPurposeEmail,
		ExpiresAt: expiresAt,
	}
	if err := p.codes.Create(token); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	return p.notifier.SendEmailVerification(ctx, VerificationNotification{
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
	})
}

func (p *LocalProvider) ConfirmSignUp(_ context.Context, email, code string) error {
	now := time.Now().UTC()
	token, err := p.codes.FindActiveByCodeHash(email, security.HashVerificationCode(code), domain.VerificationPurposeEmail, now)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationTokenNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("look up verification code: %w", err)
	}
	if err := p.codes.Consume(token.ID, now); err != nil {
		if errors.Is(err, repository.ErrVerificationTokenNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("consume verification code: %w", err)
	}
	if err := p.creds.MarkEmailVerified(email); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}

func (p *LocalProvider) InitiateAuth(_ context.Context, email, password string, meta ClientMeta) (*TokenTriple, error) {
	cred, err := p.creds.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up credential: %w", err)
	}
	if !security.ComparePassword(cred.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !cred.EmailVerified {
		return nil, ErrNotConfirmed
	}
	return p.issueTriple(cred, meta)
}

func (p *LocalProvider) issueTriple(cred *domain.LocalCredential, meta ClientMeta) (*TokenTriple, error) {
	access, err := p.jwt.SignAccessToken(cred.ID, cred.Email, p.accessTTL)
	if err != nil {
		return nil, err
	}
	id, err := p.jwt.SignIDToken(cred.ID, cred.Email, cred.Name, p.accessTTL)
	if err != nil {
		return nil, err
	}
	jti, err := security.NewRandomString(16)
	if err != nil {
		return nil, err
	}
	refresh, err := p.jwt.SignRefreshToken(cred.ID, jti, p.refreshTTL)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		UserID:           cred.ID,
		RefreshTokenHash: security.HashRefreshToken(refresh, p.pepper),
		UserAgent:        meta.UserAgent,
		IP:               meta.IP,
		ExpiresAt:        time.Now().UTC().Add(p.refreshTTL),
	}
	if err := p.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}

	return &TokenTriple{AccessToken: access, IDToken: id, RefreshToken: refresh}, nil
}

func (p *LocalProvider) Refresh(_ context.Context, refreshToken string) (*TokenTriple, error) {
	claims, err := p.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	hash := security.HashRefreshToken(refreshToken, p.pepper)
	if _, err := p.sessions.FindLiveByHash(hash, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("look up session: %w", err)
	}

	cred, err := p.creds.FindByID(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	access, err := p.jwt.SignAccessToken(cred.ID, cred.Email, p.accessTTL)
	if err != nil {
		return nil, err
	}
	id, err := p.jwt.SignIDToken(cred.ID, cred.Email, cred.Name, p.accessTTL)
	if err != nil {
		return nil, err
	}
	return &TokenTriple{AccessToken: access, IDToken: id, RefreshToken: refreshToken}, nil
}

func (p *LocalProvider) GetUserEmail(_ context.Context, accessToken string) (string, error) {
	claims, err := p.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func (p *LocalProvider) GlobalSignOut(_ context.Context, accessToken string) error {
	claims, err := p.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return ErrInvalidToken
	}
	if _, err := p.sessions.RevokeByUserID(claims.Subject); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

func checkPasswordPolicy(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
