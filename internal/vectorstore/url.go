package vectorstore

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// parseURL splits a "scheme://host:port" Qdrant URL into its gRPC dial
// parameters. Defaults to port 6334 when unspecified; TLS is enabled for
// an "https" scheme.
func parseURL(raw string) (host string, port int, useTLS bool, err error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant url %q: %w", raw, err)
	}

	host = u.Hostname()
	if host == "" {
		return "", 0, false, fmt.Errorf("invalid qdrant url %q: missing host", raw)
	}

	port = 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid qdrant url %q: bad port: %w", raw, err)
		}
	}

	useTLS = u.Scheme == "https"
	return host, port, useTLS, nil
}
