package sourcecache

import (
	"net/url"
	"sort"
	"strings"
)

// Signature builds the normalized request signature a cached response is
// keyed by: upper-cased method, the request path, and the query parameters
// sorted by key then value. Two requests that differ only in parameter
// order share one cache row.
func Signature(method, path string, params url.Values) string {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(method))
	sb.WriteString(" ")
	sb.WriteString(path)

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("?")
		first := true
		for _, k := range keys {
			values := append([]string(nil), params[k]...)
			sort.Strings(values)
			for _, v := range values {
				if !first {
					sb.WriteString("&")
				}
				first = false
				sb.WriteString(url.QueryEscape(k))
				sb.WriteString("=")
				sb.WriteString(url.QueryEscape(v))
			}
		}
	}

	return sb.String()
}

// isCacheable reports whether the signature describes a GET request. The
// cache is GET-only: responses to mutating requests must never be stored.
func isCacheable(signature string) bool {
	return strings.HasPrefix(signature, "GET ")
}
