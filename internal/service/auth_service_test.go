package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/identity"
	"github.com/aki-13627/animalia/internal/repository"
)

type stubProvider struct {
	SignUpFn        func(ctx context.Context, name, email, password string) error
	ConfirmSignUpFn func(ctx context.Context, email, code string) error
	InitiateAuthFn  func(ctx context.Context, email, password string, meta identity.ClientMeta) (*identity.TokenTriple, error)
	RefreshFn       func(ctx context.Context, refreshToken string) (*identity.TokenTriple, error)
	GetUserEmailFn  func(ctx context.Context, accessToken string) (string, error)
	GlobalSignOutFn func(ctx context.Context, accessToken string) error
}

func (s *stubProvider) SignUp(ctx context.Context, name, email, password string) error {
	if s.SignUpFn != nil {
		return s.SignUpFn(ctx, name, email, password)
	}
	return nil
}

func (s *stubProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	if s.ConfirmSignUpFn != nil {
		return s.ConfirmSignUpFn(ctx, email, code)
	}
	return nil
}

func (s *stubProvider) InitiateAuth(ctx context.Context, email, password string, meta identity.ClientMeta) (*identity.TokenTriple, error) {
	if s.InitiateAuthFn != nil {
		return s.InitiateAuthFn(ctx, email, password, meta)
	}
	return &identity.TokenTriple{AccessToken: "access", IDToken: "id", RefreshToken: "refresh"}, nil
}

func (s *stubProvider) Refresh(ctx context.Context, refreshToken string) (*identity.TokenTriple, error) {
	if s.RefreshFn != nil {
		return s.RefreshFn(ctx, refreshToken)
	}
	return &identity.TokenTriple{AccessToken: "access2", IDToken: "id2", RefreshToken: refreshToken}, nil
}

func (s *stubProvider) GetUserEmail(ctx context.Context, accessToken string) (string, error) {
	if s.GetUserEmailFn != nil {
		return s.GetUserEmailFn(ctx, accessToken)
	}
	return "taro@example.com", nil
}

func (s *stubProvider) GlobalSignOut(ctx context.Context, accessToken string) error {
	if s.GlobalSignOutFn != nil {
		return s.GlobalSignOutFn(ctx, accessToken)
	}
	return nil
}

type stubUserRepository struct {
	CreateFn      func(user *domain.User) error
	FindByIDFn    func(id string) (*domain.User, error)
	FindByEmailFn func(email string) (*domain.User, error)
	ExistsEmailFn func(email string) (bool, error)
	UpdateFn      func(user *domain.User) error
}

func (s *stubUserRepository) Create(user *domain.User) error {
	if s.CreateFn != nil {
		return s.CreateFn(user)
	}
	return nil
}

func (s *stubUserRepository) FindByID(id string) (*domain.User, error) {
	if s.FindByIDFn != nil {
		return s.FindByIDFn(id)
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubUserRepository) FindByEmail(email string) (*domain.User, error) {
	if s.FindByEmailFn != nil {
		return s.FindByEmailFn(email)
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubUserRepository) ExistsEmail(email string) (bool, error) {
	if s.ExistsEmailFn != nil {
		return s.ExistsEmailFn(email)
	}
	return false, nil
}

func (s *stubUserRepository) Update(user *domain.User) error {
	if s.UpdateFn != nil {
		return s.UpdateFn(user)
	}
	return nil
}

func TestAuthServiceSignUpProviderFirst(t *testing.T) {
	var order []string
	provider := &stubProvider{
		SignUpFn: func(context.Context, string, string, string) error {
			order = append(order, "provider")
			return nil
		},
	}
	users := &stubUserRepository{
		CreateFn: func(user *domain.User) error {
			order = append(order, "local")
			return nil
		},
	}
	svc := NewAuthService(provider, users, &stubStorageService{})

	user, err := svc.SignUp(context.Background(), "Taro", "taro@example.com", "Passw0rd1")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.Email != "taro@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(order) != 2 || order[0] != "provider" || order[1] != "local" {
		t.Fatalf("expected provider registration before local row, got %v", order)
	}
}

func TestAuthServiceSignUpProviderFailureSkipsLocalRow(t *testing.T) {
	provider := &stubProvider{
		SignUpFn: func(context.Context, string, string, string) error {
			return identity.ErrEmailTaken
		},
	}
	created := false
	users := &stubUserRepository{
		CreateFn: func(*domain.User) error {
			created = true
			return nil
		},
	}
	svc := NewAuthService(provider, users, &stubStorageService{})

	if _, err := svc.SignUp(context.Background(), "Taro", "taro@example.com", "Passw0rd1"); !errors.Is(err, identity.ErrEmailTaken) {
		t.Fatalf("expected provider error surfaced, got %v", err)
	}
	if created {
		t.Fatal("local user row must not be created when the provider rejects")
	}
}

func TestAuthServiceSignUpExistingLocalEmail(t *testing.T) {
	providerCalled := false
	provider := &stubProvider{
		SignUpFn: func(context.Context, string, string, string) error {
			providerCalled = true
			return nil
		},
	}
	users := &stubUserRepository{
		ExistsEmailFn: func(string) (bool, error) { return true, nil },
	}
	svc := NewAuthService(provider, users, &stubStorageService{})

	if _, err := svc.SignUp(context.Background(), "Taro", "taro@example.com", "Passw0rd1"); !errors.Is(err, identity.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if providerCalled {
		t.Fatal("provider must not be called when the email is already registered locally")
	}
}

func TestAuthServiceSignIn(t *testing.T) {
	users := &stubUserRepository{
		FindByEmailFn: func(email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Name: "Taro", Email: email}, nil
		},
	}
	svc := NewAuthService(&stubProvider{}, users, &stubStorageService{})

	result, err := svc.SignIn(context.Background(), "taro@example.com", "Passw0rd1", identity.ClientMeta{})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if result.AccessToken != "access" || result.IDToken != "id" || result.RefreshToken != "refresh" {
		t.Fatalf("unexpected tokens: %+v", result)
	}
	if result.User.ID != "u1" || result.User.Email != "taro@example.com" {
		t.Fatalf("unexpected user view: %+v", result.User)
	}
}

func TestAuthServiceSignInMissingLocalRow(t *testing.T) {
	svc := NewAuthService(&stubProvider{}, &stubUserRepository{}, &stubStorageService{})

	if _, err := svc.SignIn(context.Background(), "ghost@example.com", "Passw0rd1", identity.ClientMeta{}); !errors.Is(err, ErrUserRecordMissing) {
		t.Fatalf("expected ErrUserRecordMissing, got %v", err)
	}
}

func TestAuthServiceGetUserByAccessToken(t *testing.T) {
	users := &stubUserRepository{
		FindByEmailFn: func(email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: email}, nil
		},
	}
	svc := NewAuthService(&stubProvider{}, users, &stubStorageService{})

	user, err := svc.GetUserByAccessToken(context.Background(), "token")
	if err != nil || user.ID != "u1" {
		t.Fatalf("unexpected result: %+v %v", user, err)
	}

	svc = NewAuthService(&stubProvider{}, &stubUserRepository{}, &stubStorageService{})
	if _, err := svc.GetUserByAccessToken(context.Background(), "token"); !errors.Is(err, ErrUserRecordMissing) {
		t.Fatalf("expected ErrUserRecordMissing, got %v", err)
	}

	provider := &stubProvider{
		GetUserEmailFn: func(context.Context, string) (string, error) {
			return "", identity.ErrInvalidToken
		},
	}
	svc = NewAuthService(provider, users, &stubStorageService{})
	if _, err := svc.GetUserByAccessToken(context.Background(), "bad"); !errors.Is(err, identity.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken passed through, got %v", err)
	}
}
