package proxy

import "strings"

const apiSuffix = "/api"

// NormalizeBaseURL returns raw with trailing slashes removed and ending in
// exactly one "/api" segment. It is idempotent. An empty input stays empty.
//
//	https://x.example.com      -> https://x.example.com/api
//	https://x.example.com/     -> https://x.example.com/api
//	https://x.example.com/api/ -> https://x.example.com/api
func NormalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}
	if strings.HasSuffix(base, apiSuffix) {
		return base
	}
	return base + apiSuffix
}
