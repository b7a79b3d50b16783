package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuerRoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, err := issuer.Generate(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 42 {
		t.Fatalf("user id = %d", id)
	}
}

func TestIssuerRejects(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, _ := issuer.Generate(1)

	if _, err := NewIssuer("other", time.Hour).Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: err = %v", err)
	}

	expired := NewIssuer("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.Generate(1)
	if _, err := issuer.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: err = %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := issuer.Parse(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unsigned: err = %v", err)
	}

	if _, err := issuer.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: err = %v", err)
	}
}
