package checker

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ndhoang91/sitecheck-cli/internal/config"
)

const (
	cdnRequestTimeout  = 10 * time.Second
	latencySampleCount = 3
	latencyWarnMS      = 2000.0
	latencyCategory    = "Performance"
	maxBodyProbeBytes  = 64 * 1024
)

// staticAssetPaths are conventionally-named assets fetched for the
// Cache-Control presence check. 404s are skipped, not failed.
var staticAssetPaths = []string{
	"/favicon.ico",
	"/robots.txt",
	"/css/main.css",
	"/js/app.js",
}

// CDNModule performs the DNS resolution, TLS validity, HTTPS redirect,
// edge-header and latency battery against every configured site.
type CDNModule struct {
	cfg      *config.Config
	resolver *net.Resolver
	client   *http.Client // redirect-following client
	direct   *http.Client // redirects disabled, for the http->https check
}

// NewCDNModule builds the DNS/TLS/CDN check module.
func NewCDNModule(cfg *config.Config) *CDNModule {
	return &CDNModule{
		cfg:      cfg,
		resolver: &net.Resolver{PreferGo: true},
		client:   newHTTPClient(cdnRequestTimeout, true),
		direct:   newHTTPClient(cdnRequestTimeout, false),
	}
}

func (m *CDNModule) Name() string { return "cdn" }

// RunAll iterates sites strictly sequentially and runs the fixed battery
// per site. Transport errors become failed results, never aborts.
func (m *CDNModule) RunAll(ctx context.Context) (ModuleResult, error) {
	if !m.cfg.TestConfig("cdn").Enabled {
		return NewModuleResult([]TestResult{
			Skip("", "DNS", "DNS/TLS/CDN Checks", "disabled in config"),
		}), nil
	}

	var tests []TestResult
	for _, site := range m.cfg.Sites() {
		tests = append(tests, m.checkSite(ctx, site)...)
	}
	return NewModuleResult(tests), nil
}

func (m *CDNModule) checkSite(ctx context.Context, site config.Site) []TestResult {
	var tests []TestResult

	ips, dnsResults := m.checkDNS(ctx, site)
	tests = append(tests, dnsResults...)
	tests = append(tests, m.checkEdgeMembership(site, ips))
	tests = append(tests, m.checkTLS(ctx, site))
	tests = append(tests, m.checkHTTPSRedirect(ctx, site))
	tests = append(tests, m.checkEdgeHeaders(ctx, site))
	tests = append(tests, m.checkAssetCaching(ctx, site)...)
	tests = append(tests, m.checkLatency(ctx, site))

	return tests
}

// checkDNS resolves A records and the CNAME chain for the site's domain.
func (m *CDNModule) checkDNS(ctx context.Context, site config.Site) ([]net.IP, []TestResult) {
	lookupCtx, cancel := context.WithTimeout(ctx, cdnRequestTimeout)
	defer cancel()

	addrs, err := m.resolver.LookupHost(lookupCtx, site.Domain)
	if err != nil {
		return nil, []TestResult{Fail(site.Domain, "DNS", "A Record Resolution", fmt.Sprintf("DNS lookup failed: %v", err))}
	}
	if len(addrs) == 0 {
		return nil, []TestResult{Fail(site.Domain, "DNS", "A Record Resolution", "no A records found")}
	}

	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil {
			ips = append(ips, ip)
		}
	}

	result := Pass(site.Domain, "DNS", "A Record Resolution").
		WithDetail("addresses", addrs)

	cnameCtx, cancel2 := context.WithTimeout(ctx, cdnRequestTimeout)
	defer cancel2()
	if cname, err := m.resolver.LookupCNAME(cnameCtx, site.Domain); err == nil {
		trimmed := strings.TrimSuffix(cname, ".")
		if trimmed != site.Domain {
			result = result.WithDetail("cname", trimmed)
		}
	}

	return ips, []TestResult{result}
}

// checkEdgeMembership flags whether any resolved IP falls inside a known
// edge-network range. Membership is a protection signal, not a guarantee;
// absence is a warning, not a failure, because the range table goes stale.
func (m *CDNModule) checkEdgeMembership(site config.Site, ips []net.IP) TestResult {
	if len(ips) == 0 {
		return Skip(site.Domain, "CDN", "Edge Network Protection", "no resolved addresses")
	}
	for _, ip := range ips {
		if IsEdgeIP(ip) {
			return Pass(site.Domain, "CDN", "Edge Network Protection").
				WithDetail("edge_ip", ip.String())
		}
	}
	return Warn(site.Domain, "CDN", "Edge Network Protection",
		"resolved addresses are outside known edge ranges (origin may be directly exposed)").
		WithDetail("addresses", ipStrings(ips))
}

func ipStrings(ips []net.IP) []string {
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return out
}

// checkTLS attempts an HTTPS GET and classifies handshake failures by the
// fixed taxonomy.
func (m *CDNModule) checkTLS(ctx context.Context, site config.Site) TestResult {
	url := "https://" + site.Domain + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Fail(site.Domain, "SSL", "Certificate Validity", err.Error())
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		if class := classifyTLSError(err); class != "" {
			return Fail(site.Domain, "SSL", "Certificate Validity", class).
				WithDetail("class", class)
		}
		return Fail(site.Domain, "SSL", "Certificate Validity", err.Error())
	}
	defer drainAndClose(resp.Body)

	result := Pass(site.Domain, "SSL", "Certificate Validity").WithLatency(time.Since(start))
	if resp.TLS != nil && len(resp.TLS.PeerCertificates) > 0 {
		cert := resp.TLS.PeerCertificates[0]
		result = result.
			WithDetail("issuer", cert.Issuer.CommonName).
			WithDetail("expires", cert.NotAfter.Format(time.RFC3339)).
			WithDetail("days_remaining", int(time.Until(cert.NotAfter).Hours()/24))
	}
	return result
}

// checkHTTPSRedirect issues a plain-HTTP GET with redirects disabled and
// verifies a 301/302/308 to an https:// location. A 200 on http is served
// content without a redirect: a warning, not a failure.
func (m *CDNModule) checkHTTPSRedirect(ctx context.Context, site config.Site) TestResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+site.Domain+"/", nil)
	if err != nil {
		return Fail(site.Domain, "SSL", "HTTP to HTTPS Redirect", err.Error())
	}

	resp, err := m.direct.Do(req)
	if err != nil {
		// Port 80 closed entirely still means no cleartext content.
		return Pass(site.Domain, "SSL", "HTTP to HTTPS Redirect").
			WithDetail("note", "http port unreachable: "+err.Error())
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusPermanentRedirect:
		location := resp.Header.Get("Location")
		if strings.HasPrefix(location, "https://") {
			return Pass(site.Domain, "SSL", "HTTP to HTTPS Redirect").
				WithDetail("location", location)
		}
		return Fail(site.Domain, "SSL", "HTTP to HTTPS Redirect",
			fmt.Sprintf("redirects to non-https location %q", location))
	case http.StatusOK:
		return Warn(site.Domain, "SSL", "HTTP to HTTPS Redirect",
			"site serves content over plain http without redirecting")
	default:
		return Fail(site.Domain, "SSL", "HTTP to HTTPS Redirect",
			fmt.Sprintf("unexpected status %d on http", resp.StatusCode))
	}
}

// checkEdgeHeaders inspects the HTTPS response for edge-specific headers
// such as a ray id.
func (m *CDNModule) checkEdgeHeaders(ctx context.Context, site config.Site) TestResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site.BaseURL()+"/", nil)
	if err != nil {
		return Fail(site.Domain, "CDN", "Edge Response Headers", err.Error())
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return Fail(site.Domain, "CDN", "Edge Response Headers", err.Error())
	}
	defer drainAndClose(resp.Body)

	for _, name := range edgeHeaderNames {
		if v := resp.Header.Get(name); v != "" {
			return Pass(site.Domain, "CDN", "Edge Response Headers").
				WithDetail("header", name).
				WithDetail("value", v)
		}
	}
	if server := resp.Header.Get("Server"); strings.Contains(strings.ToLower(server), "cloudflare") {
		return Pass(site.Domain, "CDN", "Edge Response Headers").
			WithDetail("header", "Server").
			WithDetail("value", server)
	}
	return Warn(site.Domain, "CDN", "Edge Response Headers", "no edge headers present in response")
}

// checkAssetCaching fetches the conventional static asset paths and checks
// for a Cache-Control header on the ones that exist.
func (m *CDNModule) checkAssetCaching(ctx context.Context, site config.Site) []TestResult {
	var tests []TestResult
	for _, path := range staticAssetPaths {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(site.BaseURL(), path), nil)
		if err != nil {
			continue
		}
		resp, err := m.client.Do(req)
		if err != nil {
			tests = append(tests, Fail(site.Domain, "CDN", "Asset Caching: "+path, err.Error()))
			continue
		}
		status := resp.StatusCode
		cacheControl := resp.Header.Get("Cache-Control")
		drainAndClose(resp.Body)

		if status == http.StatusNotFound {
			continue // asset simply not present, nothing to judge
		}
		if cacheControl == "" {
			tests = append(tests, Warn(site.Domain, "CDN", "Asset Caching: "+path,
				"no Cache-Control header on static asset"))
			continue
		}
		tests = append(tests, Pass(site.Domain, "CDN", "Asset Caching: "+path).
			WithDetail("cache_control", cacheControl))
	}
	return tests
}

// checkLatency issues three sequential timed GETs against the homepage and
// reports avg/min/max, flagging averages over the fixed threshold.
func (m *CDNModule) checkLatency(ctx context.Context, site config.Site) TestResult {
	var samples []float64
	for i := 0; i < latencySampleCount; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, site.BaseURL()+"/", nil)
		if err != nil {
			return Fail(site.Domain, latencyCategory, "Response Latency", err.Error())
		}
		start := time.Now()
		resp, err := m.client.Do(req)
		if err != nil {
			return Fail(site.Domain, latencyCategory, "Response Latency", err.Error())
		}
		drainAndClose(resp.Body)
		samples = append(samples, float64(time.Since(start).Milliseconds()))
	}

	avg, min, max := summarizeLatency(samples)
	result := Pass(site.Domain, latencyCategory, "Response Latency")
	if avg > latencyWarnMS {
		result = Warn(site.Domain, latencyCategory, "Response Latency",
			fmt.Sprintf("average latency %.0fms exceeds %.0fms", avg, latencyWarnMS))
	}
	result.LatencyMS = avg
	return result.
		WithDetail("avg_ms", avg).
		WithDetail("min_ms", min).
		WithDetail("max_ms", max)
}

func summarizeLatency(samples []float64) (avg, min, max float64) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	min, max = samples[0], samples[0]
	sum := 0.0
	for _, s := range samples {
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return sum / float64(len(samples)), min, max
}

// drainAndClose discards the remaining body so connections can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxBodyProbeBytes))
	_ = body.Close()
}
