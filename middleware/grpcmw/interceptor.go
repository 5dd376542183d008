// Package grpcmw provides gRPC server interceptors for rate limiting.
//
// Separated from the middleware package so that importing the HTTP
// middleware does not pull in google.golang.org/grpc. The caller's
// identity is built from the peer address and the "user-agent" request
// metadata, so the IP, user-agent, and fingerprint strategies all work
// for RPCs.
//
// Usage:
//
//	server := grpc.NewServer(
//	    grpc.ChainUnaryInterceptor(grpcmw.UnaryServerInterceptor(limiter)),
//	    grpc.ChainStreamInterceptor(grpcmw.StreamServerInterceptor(limiter)),
//	)
package grpcmw

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/redilimit/redilimit"
)

// DeniedHandler produces the gRPC error returned when a request is rate
// limited. Default: codes.ResourceExhausted with retry guidance.
type DeniedHandler func(ctx context.Context, result *redilimit.Result) error

// Config holds full configuration for gRPC rate limit interceptors.
type Config struct {
	// Limiter is the rate limiter instance (required).
	Limiter redilimit.Checker

	// DeniedHandler produces the error returned on denial.
	// Default: codes.ResourceExhausted.
	DeniedHandler DeniedHandler

	// ExcludeMethods are full method names (e.g. "/pkg.Service/Method")
	// that bypass rate limiting.
	ExcludeMethods map[string]bool

	// Headers controls whether x-ratelimit-* metadata is sent in
	// response headers. Default: true.
	Headers *bool
}

// UnaryServerInterceptor creates a unary interceptor with default settings.
func UnaryServerInterceptor(limiter redilimit.Checker) grpc.UnaryServerInterceptor {
	return UnaryServerInterceptorWithConfig(Config{Limiter: limiter})
}

// UnaryServerInterceptorWithConfig creates a unary interceptor with full
// configuration control.
func UnaryServerInterceptorWithConfig(cfg Config) grpc.UnaryServerInterceptor {
	cfg = cfg.withDefaults()

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if cfg.ExcludeMethods != nil && cfg.ExcludeMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		result, err := cfg.check(ctx)
		if err != nil {
			return nil, err
		}
		if cfg.sendHeaders() {
			_ = grpc.SetHeader(ctx, resultMetadata(result))
		}
		if !result.Allowed {
			return nil, cfg.DeniedHandler(ctx, result)
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor creates a stream interceptor with default settings.
func StreamServerInterceptor(limiter redilimit.Checker) grpc.StreamServerInterceptor {
	return StreamServerInterceptorWithConfig(Config{Limiter: limiter})
}

// StreamServerInterceptorWithConfig creates a stream interceptor with
// full configuration control.
func StreamServerInterceptorWithConfig(cfg Config) grpc.StreamServerInterceptor {
	cfg = cfg.withDefaults()

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if cfg.ExcludeMethods != nil && cfg.ExcludeMethods[info.FullMethod] {
			return handler(srv, ss)
		}

		ctx := ss.Context()
		result, err := cfg.check(ctx)
		if err != nil {
			return err
		}
		if cfg.sendHeaders() {
			_ = ss.SetHeader(resultMetadata(result))
		}
		if !result.Allowed {
			return cfg.DeniedHandler(ctx, result)
		}
		return handler(srv, ss)
	}
}

// ─── Internals ───────────────────────────────────────────────────────────────

func (cfg Config) withDefaults() Config {
	if cfg.Limiter == nil {
		panic("grpcmw: Limiter is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = defaultDeniedHandler
	}
	return cfg
}

func (cfg Config) sendHeaders() bool {
	return cfg.Headers == nil || *cfg.Headers
}

func (cfg Config) check(ctx context.Context) (*redilimit.Result, error) {
	result, err := cfg.Limiter.Check(ctx, requestFromContext(ctx))
	if err != nil {
		return nil, status.Error(codes.Internal,
			"an issue occurred while checking rate limits, please try again later")
	}
	return result, nil
}

// requestFromContext builds the identity request from the RPC peer
// address and the client-reported user-agent metadata.
func requestFromContext(ctx context.Context) *redilimit.Request {
	req := &redilimit.Request{Header: make(http.Header)}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		req.RemoteAddr = p.Addr.String()
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ua := md.Get("user-agent"); len(ua) > 0 {
			req.Header.Set("User-Agent", ua[0])
		}
		if xff := md.Get("x-forwarded-for"); len(xff) > 0 {
			req.Header.Set("X-Forwarded-For", xff[0])
		}
	}
	return req
}

func resultMetadata(result *redilimit.Result) metadata.MD {
	md := metadata.MD{}
	for name, value := range result.Headers() {
		md.Set(name, value)
	}
	return md
}

func defaultDeniedHandler(_ context.Context, result *redilimit.Result) error {
	if result.RetryAfter != nil {
		return status.Errorf(codes.ResourceExhausted,
			"rate limit exceeded, retry after %ds", *result.RetryAfter)
	}
	return status.Error(codes.ResourceExhausted, "rate limit exceeded")
}
