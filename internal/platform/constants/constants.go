// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Reader: Page caching policy and auto-play bounds.
  - Security: Token sources and claims issuer.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "kometa"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Archive downloads stream whole files, so this is longer than a JSON API would need.
	DefaultWriteTimeout = 5 * time.Minute

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	// A reader pre-fetching pages bursts far above a typical JSON client.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 200

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Reader

const (
	// PageCacheControl marks page bytes as immutable: archives never change once stored.
	PageCacheControl = "public, max-age=31536000, immutable"

	// MinAutoPlayInterval and MaxAutoPlayInterval bound the auto-play timer.
	MinAutoPlayInterval = 1 * time.Second
	MaxAutoPlayInterval = 30 * time.Second

	// DefaultAutoPlayInterval is used when a session does not choose one.
	DefaultAutoPlayInterval = 5 * time.Second

	// DefaultMaxPageBytes caps the uncompressed size of one page read into memory.
	DefaultMaxPageBytes = 64 << 20
)

// # Authentication

const (
	// AuthCookieName is the cookie the web client stores its token in.
	AuthCookieName = "auth_token"
)

// # API

const (
	// APIPrefix is the versioned mount point for every domain route.
	APIPrefix = "/api/v1"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
	HeaderCacheControl  = "Cache-Control"
	HeaderContentType   = "Content-Type"
	HeaderETag          = "ETag"
)

// # JSON Field Identifiers

const (
	FieldError  = "error"
	FieldCode   = "code"
	FieldStatus = "status"
	FieldChecks = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixArchiveIndex = "archive:index:"
)
