package redilimit

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// Strategy selects how a request is mapped to a rate limit identity key.
// The set is closed; extensibility goes through StrategyCustom and a
// caller-supplied KeyGenerator.
type Strategy string

const (
	// StrategyIP keys on the client IP address. May not be viable behind
	// proxies or load balancers that don't forward the original address.
	StrategyIP Strategy = "ip"

	// StrategyUserAgent keys on a deterministic identifier derived from
	// the raw User-Agent string.
	StrategyUserAgent Strategy = "user_agent"

	// StrategyClient keys on a fingerprint combining IP address and
	// user-agent identifier. Recommended.
	StrategyClient Strategy = "client"

	// StrategyCustom delegates entirely to a KeyGenerator supplied via
	// WithKeyGenerator.
	StrategyCustom Strategy = "custom"
)

// UnknownIP is the sentinel identity used when no client address can be
// determined. Missing headers degrade to sentinels, never to errors.
const UnknownIP = "unknown"

// Request carries the request context the identity resolver reads.
// It is framework-neutral so the Fiber (fasthttp) and gRPC adapters can
// construct one without a *http.Request.
type Request struct {
	Header     http.Header
	RemoteAddr string
}

// FromHTTP adapts a *http.Request for identity resolution.
func FromHTTP(r *http.Request) *Request {
	return &Request{Header: r.Header, RemoteAddr: r.RemoteAddr}
}

// KeyGenerator produces the full store key identifying the caller of a
// request. Custom generators own key uniqueness: colliding keys share a
// single rate limit window.
type KeyGenerator func(ctx context.Context, req *Request) (string, error)

// ClientIP extracts the client address: the first X-Forwarded-For entry
// if present, else the connection address, else UnknownIP.
func ClientIP(req *Request) string {
	if req.Header != nil {
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
				return ip
			}
		}
	}
	if req.RemoteAddr == "" {
		return UnknownIP
	}
	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return host
	}
	return req.RemoteAddr
}

// newKeyGenerator resolves the configured strategy into a KeyGenerator.
// Misconfiguration fails here, at setup, not at first request.
func (rl *RateLimiter) newKeyGenerator() (KeyGenerator, error) {
	cfg := rl.cfg
	switch cfg.strategy {
	case StrategyIP:
		return func(_ context.Context, req *Request) (string, error) {
			return cfg.formatKey("ip:" + ClientIP(req)), nil
		}, nil

	case StrategyUserAgent:
		return func(_ context.Context, req *Request) (string, error) {
			ua := rl.clientUserAgent(req)
			return cfg.formatKey("ua:" + ua.UAID), nil
		}, nil

	case StrategyClient:
		return func(_ context.Context, req *Request) (string, error) {
			ua := rl.clientUserAgent(req)
			return cfg.formatKey("fp:" + ClientIP(req) + ":" + ua.UAID), nil
		}, nil

	case StrategyCustom:
		if cfg.keyGenerator == nil {
			return nil, ErrMissingKeyGenerator
		}
		return cfg.keyGenerator, nil

	default:
		return nil, ErrUnknownStrategy
	}
}
