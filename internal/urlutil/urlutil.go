package urlutil

import (
	"errors"
	"net/url"
	"strings"
)

var (
	errMissingSchemeOrHost = errors.New("missing scheme or host")
	errUnsupportedScheme   = errors.New("unsupported scheme")
)

// ParseAbsolute parses raw as an absolute HTTP(S) URL and drops its fragment.
func ParseAbsolute(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errMissingSchemeOrHost
	}

	if !isHTTPScheme(parsed.Scheme) {
		return nil, errUnsupportedScheme
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""

	return parsed, nil
}

// Resolve resolves href against base and returns an absolute HTTP(S) URL
// without fragment. Empty, fragment-only, malformed and non-HTTP links are rejected.
func Resolve(base *url.URL, href string) (*url.URL, bool) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, false
	}

	if parsed.Scheme != "" && !isHTTPScheme(parsed.Scheme) {
		return nil, false
	}

	resolved := base.ResolveReference(parsed)
	if !isHTTPScheme(resolved.Scheme) || resolved.Host == "" {
		return nil, false
	}

	resolved.Fragment = ""
	resolved.RawFragment = ""

	return resolved, true
}

// Normalize returns the dedup key of u: scheme, host and path only, with the
// query, the fragment and a single trailing slash removed. Pages that differ
// only by query string share a key.
func Normalize(u *url.URL) string {
	normalized := u.Scheme + "://" + u.Host + u.EscapedPath()

	return strings.TrimSuffix(normalized, "/")
}

// SameHost reports whether u points at host (port included), ignoring case.
func SameHost(u *url.URL, host string) bool {
	return strings.EqualFold(u.Host, host)
}

func isHTTPScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)

	return scheme == "http" || scheme == "https"
}
