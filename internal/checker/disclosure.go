package checker

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// sensitiveFilePaths are files that must never be served publicly. A 200
// with real content on any of them is a failure for the whole site.
var sensitiveFilePaths = []string{
	".env",
	".git/config",
	"config.php",
	"wp-config.php",
	".htaccess",
	"composer.json",
	"package.json",
	"phpinfo.php",
	"info.php",
	"server-status",
	".DS_Store",
	"backup.sql",
	"database.sql",
}

var serverVersionPattern = regexp.MustCompile(`\d+\.\d+`)

// checkInfoDisclosure grades the homepage headers for stack fingerprints:
// a versioned Server header and any X-Powered-By value. Both are warnings,
// not failures; they aid an attacker without being exploitable themselves.
func checkInfoDisclosure(domain string, headers http.Header) []TestResult {
	var tests []TestResult

	server := headers.Get("Server")
	if serverVersionPattern.MatchString(server) {
		tests = append(tests, Warn(domain, "Disclosure", "Server Version Disclosure",
			"Server header reveals a version").WithDetail("server", server))
	} else {
		tests = append(tests, Pass(domain, "Disclosure", "Server Version Disclosure"))
	}

	if powered := headers.Get("X-Powered-By"); powered != "" {
		tests = append(tests, Warn(domain, "Disclosure", "Technology Disclosure",
			"X-Powered-By header present").WithDetail("x_powered_by", powered))
	} else {
		tests = append(tests, Pass(domain, "Disclosure", "Technology Disclosure"))
	}

	return tests
}

// checkSensitiveFiles probes the conventional sensitive paths and fails the
// site when any answers 200 with content that is not a soft 404 page.
func checkSensitiveFiles(ctx context.Context, client *http.Client, domain, baseURL string) TestResult {
	var exposed []string
	probed := 0

	for _, path := range sensitiveFilePaths {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(baseURL, path), nil)
		if err != nil {
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		head, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		status := resp.StatusCode
		drainAndClose(resp.Body)
		probed++

		if status != http.StatusOK {
			continue
		}
		// Soft 404s answer 200 with a not-found page; real content does not.
		lower := strings.ToLower(string(head))
		if strings.Contains(lower, "404") || strings.Contains(lower, "not found") {
			continue
		}
		exposed = append(exposed, path)
	}

	if probed == 0 {
		return Skip(domain, "Disclosure", "Sensitive File Exposure", "site unreachable")
	}
	if len(exposed) > 0 {
		return Fail(domain, "Disclosure", "Sensitive File Exposure",
			"sensitive files publicly accessible").
			WithDetail("paths", exposed)
	}
	return Pass(domain, "Disclosure", "Sensitive File Exposure").
		WithDetail("probes", probed)
}
