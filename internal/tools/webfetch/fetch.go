// Package webfetch implements the concurrent-class web fetch tool: it
// retrieves a URL, gated by internal/net/ssrf's public-hostname policy,
// and hands the model back Markdown rather than raw HTML.
package webfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"

	"github.com/haasonsaas/agentcore/internal/net/ssrf"
)

const (
	defaultTimeout      = 20 * time.Second
	defaultMaxBytes     = 2 * 1000 * 1000
	defaultMaxRedirects = 5
)

// Fetcher retrieves a URL and converts its body to Markdown. Every dial is
// gated through ssrf.ValidatePublicHostname against the connection's
// actual resolved address, not just the URL's hostname, so a redirect
// into a private network is blocked at dial time rather than trusted
// because the original host looked public.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// Option tunes a Fetcher built by NewFetcher.
type Option func(*Fetcher)

// WithTimeout overrides the default per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client.Timeout = d }
}

// WithMaxBytes caps how much of the response body is read.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

// NewFetcher builds a Fetcher whose transport validates every dial
// target against the SSRF policy before connecting.
func NewFetcher(opts ...Option) *Fetcher {
	dialer := &net.Dialer{Timeout: 7 * time.Second}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}
			if err := ssrf.ValidatePublicHostname(host); err != nil {
				return nil, fmt.Errorf("webfetch: %w", err)
			}
			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConns:        20,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 7 * time.Second,
	}

	f := &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   defaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > defaultMaxRedirects {
					return fmt.Errorf("stopped after %d redirects", defaultMaxRedirects)
				}
				return ssrf.ValidatePublicHostname(req.URL.Hostname())
			},
		},
		maxBytes:  defaultMaxBytes,
		userAgent: "agentcore-webfetch/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Result is what Fetch hands back: Markdown is the payload meant for the
// model; the rest is metadata useful for a tool result's UIExtra.
type Result struct {
	FinalURL string
	Title    string
	Markdown string
}

// Fetch retrieves rawURL and converts its body to Markdown, preferring
// the page's main article content (via go-readability) over the full
// HTML when that extraction succeeds.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("unsupported scheme: only http/https are allowed")
	}
	if err := ssrf.ValidatePublicHostname(u.Hostname()); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,application/json;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("webfetch: %s returned HTTP %d", rawURL, resp.StatusCode)
	}

	contentType, charsetLabel := parseContentType(resp.Header.Get("Content-Type"))
	limited := io.LimitReader(resp.Body, f.maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("webfetch: response exceeds %d bytes", f.maxBytes)
	}

	utf8Body, err := toUTF8(body, charsetLabel)
	if err != nil {
		return nil, fmt.Errorf("charset decode: %w", err)
	}

	finalURL := resp.Request.URL.String()
	switch {
	case isHTML(contentType):
		return htmlToResult(finalURL, string(utf8Body))
	case strings.HasPrefix(contentType, "text/") || contentType == "application/json":
		return &Result{FinalURL: finalURL, Markdown: fenced(string(utf8Body), fenceLanguage(contentType))}, nil
	default:
		return &Result{
			FinalURL: finalURL,
			Markdown: fmt.Sprintf("Downloaded a non-text resource (%s, %d bytes); not rendered.", contentType, len(body)),
		}, nil
	}
}

func htmlToResult(finalURL, html string) (*Result, error) {
	var title string
	content := html

	base, _ := url.Parse(finalURL)
	if art, err := readability.FromReader(strings.NewReader(html), base); err == nil && strings.TrimSpace(art.Content) != "" {
		content = art.Content
		title = strings.TrimSpace(art.Title)
	}

	domain := ""
	if base != nil && base.Host != "" {
		domain = base.Scheme + "://" + base.Host
	}
	md, err := htmltomarkdown.ConvertString(content, converter.WithDomain(domain))
	if err != nil {
		return nil, fmt.Errorf("html to markdown: %w", err)
	}
	md = strings.TrimSpace(md)
	if title != "" && !strings.HasPrefix(md, "# ") {
		md = "# " + title + "\n\n" + md
	}
	return &Result{FinalURL: finalURL, Title: title, Markdown: md}, nil
}

func parseContentType(header string) (mimeType, charsetLabel string) {
	if header == "" {
		return "", ""
	}
	mt, params, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(header), ""
	}
	return strings.ToLower(mt), strings.ToLower(params["charset"])
}

func isHTML(contentType string) bool {
	return contentType == "text/html" || contentType == "application/xhtml+xml" || strings.HasSuffix(contentType, "+html")
}

func fenceLanguage(contentType string) string {
	switch contentType {
	case "application/json":
		return "json"
	case "text/markdown":
		return "md"
	case "text/csv":
		return "csv"
	default:
		return ""
	}
}

func fenced(body, lang string) string {
	body = strings.TrimRight(body, "\n")
	return "```" + lang + "\n" + body + "\n```"
}

func toUTF8(body []byte, charsetLabel string) ([]byte, error) {
	if charsetLabel == "" || strings.EqualFold(charsetLabel, "utf-8") {
		return body, nil
	}
	r, err := charset.NewReaderLabel(charsetLabel, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
