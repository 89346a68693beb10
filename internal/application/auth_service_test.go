package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type credentialStoreStub struct {
	creds    UserCredentials
	credsErr error

	user    User
	userErr error
}

func (c *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	if c.credsErr != nil {
		return UserCredentials{}, c.credsErr
	}
	if c.creds.User.ID == "" {
		return UserCredentials{}, ErrNotFound
	}
	return c.creds, nil
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if c.userErr != nil {
		return User{}, c.userErr
	}
	if c.user.ID != id {
		return User{}, ErrNotFound
	}
	return c.user, nil
}

type sessionRepoStub struct {
	created Session
	stored  Session

	getErr     error
	revokedAt  *time.Time
	revokeErr  error
	deletedRef time.Time
}

func (s *sessionRepoStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	s.created = session
	return session, nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, token string) (Session, error) {
	if s.getErr != nil {
		return Session{}, s.getErr
	}
	if s.stored.Token != token {
		return Session{}, ErrNotFound
	}
	return s.stored, nil
}

func (s *sessionRepoStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	if s.revokeErr != nil {
		return Session{}, s.revokeErr
	}
	if s.stored.Token != token {
		return Session{}, ErrNotFound
	}
	s.revokedAt = &revokedAt
	session := s.stored
	session.RevokedAt = &revokedAt
	return session, nil
}

func (s *sessionRepoStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.deletedRef = reference
	return nil
}

func passwordMatches(hashedPassword, password string) error {
	if hashedPassword != "hash:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func TestAuthService_Authenticate(t *testing.T) {
	user := User{ID: "user-1", Email: "olivia@example.com", DisplayName: "Olivia Chen"}

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		sessions := &sessionRepoStub{}
		svc := NewAuthService(
			&credentialStoreStub{creds: UserCredentials{User: user, PasswordHash: "hash:secret"}},
			sessions, passwordMatches,
			sequentialIDs("tok"), fixedClock(), time.Hour,
		)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{
			Email: "Olivia@Example.com", Password: "secret",
		})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.User.ID != "user-1" {
			t.Errorf("expected user-1, got %s", result.User.ID)
		}
		if result.Session.Token == "" {
			t.Error("expected a session token")
		}
		wantExpiry := fixedClock()().Add(time.Hour)
		if !result.Session.ExpiresAt.Equal(wantExpiry) {
			t.Errorf("expected expiry %v, got %v", wantExpiry, result.Session.ExpiresAt)
		}
		if sessions.created.UserID != "user-1" {
			t.Errorf("expected persisted session for user-1, got %s", sessions.created.UserID)
		}
	})

	t.Run("wrong password is invalid credentials", func(t *testing.T) {
		svc := NewAuthService(
			&credentialStoreStub{creds: UserCredentials{User: user, PasswordHash: "hash:secret"}},
			&sessionRepoStub{}, passwordMatches,
			sequentialIDs("tok"), fixedClock(), time.Hour,
		)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{
			Email: "olivia@example.com", Password: "wrong",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown account is invalid credentials", func(t *testing.T) {
		svc := NewAuthService(&credentialStoreStub{}, &sessionRepoStub{}, passwordMatches,
			sequentialIDs("tok"), fixedClock(), time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{
			Email: "ghost@example.com", Password: "secret",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("disabled account is rejected", func(t *testing.T) {
		svc := NewAuthService(
			&credentialStoreStub{creds: UserCredentials{User: user, PasswordHash: "hash:secret", Disabled: true}},
			&sessionRepoStub{}, passwordMatches,
			sequentialIDs("tok"), fixedClock(), time.Hour,
		)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{
			Email: "olivia@example.com", Password: "secret",
		})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	user := User{ID: "user-1", IsAdmin: true}
	now := fixedClock()()

	newService := func(sessions *sessionRepoStub) *AuthService {
		return NewAuthService(&credentialStoreStub{user: user}, sessions, passwordMatches,
			sequentialIDs("tok"), fixedClock(), time.Hour)
	}

	t.Run("active session yields the principal", func(t *testing.T) {
		svc := newService(&sessionRepoStub{stored: Session{
			ID: "sess-1", UserID: "user-1", Token: "tok-1", ExpiresAt: now.Add(time.Hour),
		}})

		principal, err := svc.ValidateSession(context.Background(), "tok-1")
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}
		if principal.UserID != "user-1" || !principal.IsAdmin {
			t.Errorf("unexpected principal %+v", principal)
		}
	})

	t.Run("expired session", func(t *testing.T) {
		svc := newService(&sessionRepoStub{stored: Session{
			ID: "sess-1", UserID: "user-1", Token: "tok-1", ExpiresAt: now.Add(-time.Minute),
		}})

		_, err := svc.ValidateSession(context.Background(), "tok-1")
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("revoked session", func(t *testing.T) {
		revoked := now.Add(-time.Minute)
		svc := newService(&sessionRepoStub{stored: Session{
			ID: "sess-1", UserID: "user-1", Token: "tok-1",
			ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked,
		}})

		_, err := svc.ValidateSession(context.Background(), "tok-1")
		if !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		svc := newService(&sessionRepoStub{})

		_, err := svc.ValidateSession(context.Background(), "tok-unknown")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	now := fixedClock()()

	t.Run("marks the session revoked", func(t *testing.T) {
		sessions := &sessionRepoStub{stored: Session{
			ID: "sess-1", UserID: "user-1", Token: "tok-1", ExpiresAt: now.Add(time.Hour),
		}}
		svc := NewAuthService(&credentialStoreStub{}, sessions, passwordMatches,
			sequentialIDs("tok"), fixedClock(), time.Hour)

		if err := svc.RevokeSession(context.Background(), "tok-1"); err != nil {
			t.Fatalf("RevokeSession failed: %v", err)
		}
		if sessions.revokedAt == nil || !sessions.revokedAt.Equal(now) {
			t.Errorf("expected revocation at %v, got %v", now, sessions.revokedAt)
		}
	})

	t.Run("unknown token is invalid credentials", func(t *testing.T) {
		svc := NewAuthService(&credentialStoreStub{}, &sessionRepoStub{}, passwordMatches,
			sequentialIDs("tok"), fixedClock(), time.Hour)

		err := svc.RevokeSession(context.Background(), "tok-missing")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := CreatePasswordHash("open sesame", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}

	if err := VerifyPassword(hash, "open sesame"); err != nil {
		t.Errorf("expected matching password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for mismatch, got %v", err)
	}
	if err := VerifyPassword("not-a-hash", "open sesame"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Errorf("expected ErrInvalidPasswordHash, got %v", err)
	}
}
