package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec([]byte("test-secret"), "vitalia-test")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestIssueAndDecodeAccess(t *testing.T) {
	codec := newTestCodec(t)

	token, expiresAt, err := codec.IssueAccess("user-1", 15*time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.TokenKind != KindAccess {
		t.Fatalf("unexpected kind: %s", claims.TokenKind)
	}
	if !claims.ExpiresAt.Time.After(claims.IssuedAt.Time) {
		t.Fatalf("expiry does not follow issued-at")
	}
}

func TestIssueRefreshCarriesFreshJTI(t *testing.T) {
	codec := newTestCodec(t)

	_, jti1, _, err := codec.IssueRefresh("user-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	_, jti2, _, err := codec.IssueRefresh("user-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if jti1 == "" || jti1 == jti2 {
		t.Fatalf("expected distinct jtis, got %q and %q", jti1, jti2)
	}
}

func TestDecodeRejectsExpired(t *testing.T) {
	codec := newTestCodec(t)
	codec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := codec.IssueAccess("user-1", time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	codec.now = time.Now
	if _, err := codec.Decode(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestDecodeRejectsTamperedSignature(t *testing.T) {
	codec := newTestCodec(t)

	token, _, err := codec.IssueAccess("user-1", time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	last := token[len(token)-1]
	replacement := byte('A')
	if last == replacement {
		replacement = 'B'
	}
	tampered := token[:len(token)-1] + string(replacement)

	if _, err := codec.Decode(tampered); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec([]byte("another-secret"), "vitalia-test")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	token, _, err := codec.IssueAccess("user-1", time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := other.Decode(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	codec := newTestCodec(t)

	for _, tok := range []string{"", "garbage", "a.b", strings.Repeat("x", 64)} {
		if _, err := codec.Decode(tok); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Decode(%q): expected ErrTokenMalformed, got %v", tok, err)
		}
	}
}

func TestDecodeRejectsForeignIssuer(t *testing.T) {
	codec := newTestCodec(t)
	foreign, err := NewCodec([]byte("test-secret"), "someone-else")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	token, _, err := foreign.IssueAccess("user-1", time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := codec.Decode(token); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	codec := newTestCodec(t)

	if _, _, err := codec.IssueAccess("", time.Minute); err == nil {
		t.Fatal("expected error for empty subject")
	}
	if _, _, err := codec.IssueAccess("user-1", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
