// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec verifies the identity tokens issued by the login flow.
//
// # Architecture
//
// Sessions are issued elsewhere; this package only checks that a presented
// HS256 token was signed with the shared secret and has not expired, and exposes
// the caller identity it carries.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret is returned when the verifier is built without a signing secret.
var ErrEmptySecret = errors.New("auth: signing secret must not be empty")

// AuthClaims represents the payload embedded inside a session token.
//
// The claim names match the tokens the web client already holds in its
// auth_token cookie.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID   int    `json:"userId"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a new TokenService for the given shared secret.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// GenerateToken creates a signed token for a user. It is used by tooling and
// tests; the web login flow issues compatible tokens itself.
func (service *TokenService) GenerateToken(userID int, username string, isAdmin bool, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:   userID,
		Username: username,
		IsAdmin:  isAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a token string.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	return claims, nil
}
