package auth

import (
	"errors"
	"testing"
	"time"
)

func TestLoginTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	user, token, err := svc.Login("ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID == "" || token == "" {
		t.Fatal("expected user id and token")
	}

	verified, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified != user {
		t.Fatalf("verified user = %+v, want %+v", verified, user)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	svc := NewService("s", time.Hour)
	cases := []struct{ username, email string }{
		{"", "a@b.c"},
		{"ada", ""},
		{"  ", "a@b.c"},
	}
	for _, tc := range cases {
		if _, _, err := svc.Login(tc.username, tc.email); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("Login(%q, %q) expected ErrMissingCredentials, got %v", tc.username, tc.email, err)
		}
	}
}

// The same credential pair must always resolve to the same user id; this is
// the only notion of identity the system has.
func TestUserIDDeterministic(t *testing.T) {
	a := UserID("ada", "ada@example.com")
	b := UserID("ada", "ADA@Example.com ")
	if a != b {
		t.Fatalf("email case/space changed the id: %s vs %s", a, b)
	}
	if UserID("ada", "ada@example.com") != a {
		t.Fatal("id is not stable across calls")
	}
	if UserID("grace", "ada@example.com") == a {
		t.Fatal("different usernames must yield different ids")
	}
	if UserID("ada", "grace@example.com") == a {
		t.Fatal("different emails must yield different ids")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	_, token, err := issuer.Login("ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	verifier := NewService("secret-b", time.Hour)
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewService("secret", -time.Minute)
	_, token, err := svc.Login("ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewService("secret", time.Hour)
	if _, err := svc.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Bearer   spaced  ", "spaced", true},
		{"bearer abc", "", false},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := BearerToken(tc.header)
		if tc.ok {
			if err != nil || got != tc.token {
				t.Fatalf("BearerToken(%q) = %q, %v; want %q", tc.header, got, err, tc.token)
			}
		} else if err == nil {
			t.Fatalf("BearerToken(%q) expected error", tc.header)
		}
	}
}
