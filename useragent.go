package redilimit

import (
	"github.com/google/uuid"
	ua "github.com/mileusna/useragent"
)

// ClientUserAgent is the structured descriptor of a request's User-Agent
// header, plus a stable identifier derived from the raw string.
type ClientUserAgent struct {
	UserAgent      string
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
	Device         string

	// UAID is a version-5 UUID of the raw User-Agent string keyed by a
	// fixed namespace: identical strings always yield the same identifier.
	UAID string
}

// ParseUserAgent parses a raw User-Agent string into a ClientUserAgent.
// An empty or unrecognized string still produces a valid descriptor with
// a deterministic UAID.
func ParseUserAgent(raw string) ClientUserAgent {
	parsed := ua.Parse(raw)
	device := parsed.Device
	if device == "" {
		device = "Other"
	}
	return ClientUserAgent{
		UserAgent:      raw,
		Browser:        parsed.Name,
		BrowserVersion: parsed.Version,
		OS:             parsed.OS,
		OSVersion:      parsed.OSVersion,
		Device:         device,
		UAID:           UserAgentID(raw),
	}
}

// UserAgentID derives the stable identifier for a raw User-Agent string:
// a version-5 UUID in the DNS namespace.
func UserAgentID(raw string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(raw)).String()
}

func (c ClientUserAgent) String() string {
	return c.Browser + " " + c.BrowserVersion + " on " + c.OS + " " + c.OSVersion + " (" + c.Device + ")"
}

// clientUserAgent parses the request's User-Agent header, memoizing
// parsed descriptors. Parsing is pure, so a cached hit is always valid.
func (rl *RateLimiter) clientUserAgent(req *Request) ClientUserAgent {
	raw := ""
	if req.Header != nil {
		raw = req.Header.Get("User-Agent")
	}
	if cached, ok := rl.uaCache.Get(raw); ok {
		return cached
	}
	parsed := ParseUserAgent(raw)
	rl.uaCache.Set(raw, parsed)
	return parsed
}
