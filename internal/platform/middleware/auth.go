// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/daviddhdev/kometa/internal/platform/apperr"
	"github.com/daviddhdev/kometa/internal/platform/constants"
	"github.com/daviddhdev/kometa/internal/platform/ctxutil"
	"github.com/daviddhdev/kometa/internal/platform/respond"
	"github.com/daviddhdev/kometa/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the session token.
//
// # Flow
//  1. Prefer 'Authorization: Bearer <token>'; fall back to the auth_token cookie.
//  2. If neither is present, the request proceeds as anonymous.
//  3. If present, verify it and inject [*sec.AuthClaims] into the context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			tokenStr, ok := extractToken(request)

			// 1. Anonymous Access
			if tokenStr == "" && ok {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Format Validation
			if !ok {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// 3. Token Verification
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// 4. Context Injection
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			ctx = ctxutil.WithLogAttrs(ctx, slog.Int("user_id", claims.UserID))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// extractToken returns the raw token, or ok=false when the Authorization header
// is present but malformed.
func extractToken(request *http.Request) (string, bool) {
	if authHeader := request.Header.Get(constants.HeaderAuthorization); authHeader != "" {
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}

	if cookie, err := request.Cookie(constants.AuthCookieName); err == nil {
		return cookie.Value, true
	}

	return "", true
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
