// Package jwtmw はAPIクライアント向けのJWT発行と検証ミドルウェアを提供します。
package jwtmw

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrEmptySubject はsubjectなしでトークンを発行しようとした場合に返されます。
var ErrEmptySubject = errors.New("token subject is required")

// Generator defines the interface for JWT token generation.
type Generator interface {
	// GenerateToken creates a signed JWT token for the given API client.
	GenerateToken(subject string) (string, error)
}

// generator implements the Generator interface.
type generator struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *generator {
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     Issuer,
		now:        time.Now,
	}
}

// Issuer is written to the iss claim of every issued token.
const Issuer = "deltamix"

// Token is an issued token together with the claims needed to track it.
type Token struct {
	Value     string
	ID        string
	Subject   string
	ExpiresAt time.Time
}

// GenerateToken creates a signed JWT token with registered claims.
func (g *generator) GenerateToken(subject string) (string, error) {
	tok, err := g.Issue(subject)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// Issue signs a token with a fresh jti.
func (g *generator) Issue(subject string) (Token, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Token{}, ErrEmptySubject
	}
	now := g.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    g.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return Token{Value: signed, ID: claims.ID, Subject: subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
