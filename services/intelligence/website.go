package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxWebsiteBytes   = 2 << 20
	maxExcerptRunes   = 2000
	maxWebsiteHeading = 12
	maxRedirects      = 5
)

// ErrBlockedAddress is returned when a website resolves to a non-public address.
var ErrBlockedAddress = errors.New("website address is not public")

// WebsiteSnapshot is what an audit prompt gets to know about a business site.
type WebsiteSnapshot struct {
	URL         string
	Reachable   bool
	Title       string
	Description string
	Headings    []string
	Excerpt     string
}

// NormalizeWebsite accepts bare hosts ("example.com") and rejects anything
// that is not http or https.
func NormalizeWebsite(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", &InputError{Field: "website", Reason: "is not a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &InputError{Field: "website", Reason: "must be an http or https URL"}
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return "", &InputError{Field: "website", Reason: "must be a public address"}
	}
	if ip := net.ParseIP(host); ip != nil && !isPublicIP(ip) {
		return "", &InputError{Field: "website", Reason: "must be a public address"}
	}
	return u.String(), nil
}

// WebsiteFetcher downloads and summarises a page with goquery.
type WebsiteFetcher struct {
	client *http.Client
}

// NewWebsiteFetcher only connects to public addresses. The check runs on
// every dial, so redirects and DNS answers pointing inside are refused too.
func NewWebsiteFetcher(timeout time.Duration) *WebsiteFetcher {
	return newWebsiteFetcher(timeout, publicOnly)
}

func newWebsiteFetcher(timeout time.Duration, control func(network, address string, c syscall.RawConn) error) *WebsiteFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := &net.Dialer{Timeout: timeout, Control: control}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
	}
	return &WebsiteFetcher{client: &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
			}
			return nil
		},
	}}
}

// publicOnly is a net.Dialer control hook; address is the resolved ip:port.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast())
}

// Fetch returns a snapshot of pageURL. Errors are for logging only; the
// returned snapshot is always usable and marked unreachable on failure.
func (f *WebsiteFetcher) Fetch(ctx context.Context, pageURL string) (*WebsiteSnapshot, error) {
	snap := &WebsiteSnapshot{URL: pageURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return snap, err
	}
	req.Header.Set("User-Agent", "LeadLens/1.0 (+website audit)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return snap, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxWebsiteBytes))
	if err != nil {
		return snap, err
	}

	snap.Reachable = true
	snap.Title = cleanText(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		snap.Description = cleanText(desc)
	} else if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		snap.Description = cleanText(desc)
	}
	doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if h := cleanText(s.Text()); h != "" {
			snap.Headings = append(snap.Headings, h)
		}
		return len(snap.Headings) < maxWebsiteHeading
	})
	snap.Excerpt = truncateRunes(extractMainContent(doc), maxExcerptRunes)
	return snap, nil
}

func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, footer").Remove()

	for _, selector := range []string{"main", "article", "#content", ".content"} {
		if selected := doc.Find(selector); selected.Length() > 0 {
			if text := cleanText(selected.Text()); text != "" {
				return text
			}
		}
	}
	return cleanText(doc.Find("body").Text())
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + "…"
}
