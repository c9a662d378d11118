package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, err := GenerateJWT("owner-42")
	if err != nil {
		t.Fatal(err)
	}
	owner, err := ParseJWT(token)
	if err != nil || owner != "owner-42" {
		t.Fatalf("parse: %q %v", owner, err)
	}
}

func TestParseJWT_Rejects(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "owner",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	s, _ := expired.SignedString([]byte("test-secret"))
	if _, err := ParseJWT(s); err == nil {
		t.Fatal("expired token accepted")
	}

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "owner",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	s, _ = foreign.SignedString([]byte("other-secret"))
	if _, err := ParseJWT(s); err == nil {
		t.Fatal("token with foreign signature accepted")
	}

	if _, err := ParseJWT("garbage"); err == nil {
		t.Fatal("garbage accepted")
	}
}
