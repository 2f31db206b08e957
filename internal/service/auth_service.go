package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/identity"
	"github.com/aki-13627/animalia/internal/repository"
)

// ErrUserRecordMissing marks a valid provider session whose local user row
// no longer exists. The middleware turns it into a 404, distinct from a
// failed verification, because a provider session can outlive a deleted
// local account.
var ErrUserRecordMissing = errors.New("no local user record for session")

type SignInResult struct {
	User         UserView
	AccessToken  string
	IDToken      string
	RefreshToken string
}

type AuthServiceInterface interface {
	SignUp(ctx context.Context, name, email, password string) (*domain.User, error)
	VerifyEmail(ctx context.Context, email, code string) error
	SignIn(ctx context.Context, email, password string, meta identity.ClientMeta) (*SignInResult, error)
	Refresh(ctx context.Context, refreshToken string) (*identity.TokenTriple, error)
	GetUserByAccessToken(ctx context.Context, accessToken string) (*domain.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

type AuthService struct {
	provider identity.Provider
	users    repository.UserRepository
	storage  StorageService
}

func NewAuthService(provider identity.Provider, users repository.UserRepository, storage StorageService) *AuthService {
	return &AuthService{provider: provider, users: users, storage: storage}
}

// SignUp registers the identity with the provider first, then mirrors it
// into a local user row. The ordering is the invariant: no local row may
// exist without a provider account behind it.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	exists, err := s.users.ExistsEmail(email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, identity.ErrEmailTaken
	}

	if err := s.provider.SignUp(ctx, name, email, password); err != nil {
		return nil, err
	}

	user := &domain.User{Email: email, Name: name}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("create user record: %w", err)
	}
	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	return s.provider.ConfirmSignUp(ctx, email, code)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string, meta identity.ClientMeta) (*SignInResult, error) {
	triple, err := s.provider.InitiateAuth(ctx, email, password, meta)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserRecordMissing
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	view, err := NewUserView(ctx, s.storage, user)
	if err != nil {
		return nil, err
	}
	return &SignInResult{
		User:         view,
		AccessToken:  triple.AccessToken,
		IDToken:      triple.IDToken,
		RefreshToken: triple.RefreshToken,
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*identity.TokenTriple, error) {
	return s.provider.Refresh(ctx, refreshToken)
}

func (s *AuthService) GetUserByAccessToken(ctx context.Context, accessToken string) (*domain.User, error) {
	email, err := s.provider.GetUserEmail(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserRecordMissing
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	return s.provider.GlobalSignOut(ctx, accessToken)
}
