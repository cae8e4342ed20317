package checker

import (
	"crypto/tls"
	"net/http"
	"strings"
	"time"
)

// joinURL appends a path to a base origin, tolerating missing or doubled
// slashes on either side.
func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// newHTTPClient builds the standard client used by the check modules:
// proper certificate verification, TLS 1.2 floor, optional redirect
// suppression.
func newHTTPClient(timeout time.Duration, followRedirects bool) *http.Client {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: false,
				MinVersion:         tls.VersionTLS12,
			},
		},
	}
	if !followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}
