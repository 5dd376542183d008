// Package redilimit provides Redis-backed sliding-window rate limiting
// for web services, with pluggable request-identity strategies and
// drop-in middleware for net/http, Gin, Echo, Fiber, and gRPC.
//
// Every check runs a single atomic prune → record → count → expire
// transaction against the shared store, so concurrent service instances
// sharing one Redis never observe a torn count.
//
// # Identity strategies
//
//   - StrategyIP — first X-Forwarded-For entry, else the connection address
//   - StrategyUserAgent — deterministic UUIDv5 of the raw User-Agent string
//   - StrategyClient — fingerprint combining IP and user-agent (recommended)
//   - StrategyCustom — caller-supplied KeyGenerator
//
// # Quick Start
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	rl, err := redilimit.New(redisstore.New(client))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	limiter, err := rl.Limiter(redilimit.Options{MaxRequests: 100, WindowSeconds: 60})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := limiter.Check(ctx, redilimit.FromHTTP(r))
//	if result.Allowed {
//	    // serve request
//	}
//
// # As middleware
//
//	mux.Handle("/api/", middleware.RateLimit(limiter)(handler))
//
// Denied requests receive a 429 with X-RateLimit-Limit, X-RateLimit-Remaining,
// X-RateLimit-Reset, and Retry-After headers. Backend failures surface as a
// distinct error (never a silent allow or deny) and map to a 500.
package redilimit
