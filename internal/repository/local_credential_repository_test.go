package repository

import (
	"errors"
	"testing"

	"github.com/aki-13627/animalia/internal/domain"
)

func createCredentialForTest(t *testing.T, repo LocalCredentialRepository, email string) *domain.LocalCredential {
	t.Helper()
	cred := &domain.LocalCredential{Email: email, Name: "Taro", PasswordHash: "hash"}
	if err := repo.Create(cred); err != nil {
		t.Fatalf("create credential: %v", err)
	}
	return cred
}

func TestLocalCredentialRepositoryCreateAndFind(t *testing.T) {
	repo := NewLocalCredentialRepository(newRepositoryDBForTest(t))

	cred := createCredentialForTest(t, repo, "Taro@Example.com")

	byEmail, err := repo.FindByEmail("taro@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != cred.ID || byEmail.Email != "taro@example.com" {
		t.Fatalf("unexpected credential: %+v", byEmail)
	}

	byID, err := repo.FindByID(cred.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != "taro@example.com" {
		t.Fatalf("unexpected credential: %+v", byID)
	}
}

func TestLocalCredentialRepositoryNotFound(t *testing.T) {
	repo := NewLocalCredentialRepository(newRepositoryDBForTest(t))

	if _, err := repo.FindByEmail("nobody@example.com"); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
	if _, err := repo.FindByID("missing"); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
}

func TestLocalCredentialRepositoryMarkEmailVerified(t *testing.T) {
	repo := NewLocalCredentialRepository(newRepositoryDBForTest(t))

	createCredentialForTest(t, repo, "taro@example.com")

	if err := repo.MarkEmailVerified("TARO@example.com"); err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	got, err := repo.FindByEmail("taro@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.EmailVerified || got.EmailVerifiedAt == nil {
		t.Fatalf("expected verified credential, got %+v", got)
	}
}

func TestLocalCredentialRepositoryUpdatePassword(t *testing.T) {
	repo := NewLocalCredentialRepository(newRepositoryDBForTest(t))

	createCredentialForTest(t, repo, "taro@example.com")

	if err := repo.UpdatePassword("taro@example.com", "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	got, err := repo.FindByEmail("taro@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Fatalf("password hash not updated: %q", got.PasswordHash)
	}
}

func TestLocalCredentialRepositoryExistsEmail(t *testing.T) {
	repo := NewLocalCredentialRepository(newRepositoryDBForTest(t))

	createCredentialForTest(t, repo, "taro@example.com")

	exists, err := repo.ExistsEmail("taro@example.com")
	if err != nil || !exists {
		t.Fatalf("expected exists=true, got exists=%v err=%v", exists, err)
	}
	exists, err = repo.ExistsEmail("hanako@example.com")
	if err != nil || exists {
		t.Fatalf("expected exists=false, got exists=%v err=%v", exists, err)
	}
}
