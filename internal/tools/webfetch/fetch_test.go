package webfetch

import (
	"context"
	"strings"
	"testing"
)

func TestFetchRejectsPrivateHost(t *testing.T) {
	f := NewFetcher()
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/")
	if err == nil {
		t.Fatal("expected private dial target to be rejected")
	}
}

func TestFetchRejectsNonHTTPScheme(t *testing.T) {
	f := NewFetcher()
	_, err := f.Fetch(context.Background(), "ftp://example.com/file")
	if err == nil {
		t.Fatal("expected non-http(s) scheme to be rejected")
	}
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	f := NewFetcher()
	_, err := f.Fetch(context.Background(), "://not-a-url")
	if err == nil {
		t.Fatal("expected invalid url to be rejected")
	}
}

func TestHTMLToResultExtractsArticleAndConvertsMarkdown(t *testing.T) {
	html := `<html><head><title>Example</title></head><body>
		<article><h1>Example</h1><p>Hello <strong>world</strong>.</p></article>
	</body></html>`

	result, err := htmlToResult("https://example.com/post", html)
	if err != nil {
		t.Fatalf("htmlToResult: %v", err)
	}
	if !strings.Contains(result.Markdown, "Hello") {
		t.Fatalf("expected markdown to contain article text, got %q", result.Markdown)
	}
	if result.FinalURL != "https://example.com/post" {
		t.Fatalf("unexpected final url %q", result.FinalURL)
	}
}

func TestParseContentType(t *testing.T) {
	cases := []struct {
		header      string
		wantMIME    string
		wantCharset string
	}{
		{"text/html; charset=iso-8859-1", "text/html", "iso-8859-1"},
		{"application/json", "application/json", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		mimeType, charsetLabel := parseContentType(tc.header)
		if mimeType != tc.wantMIME || charsetLabel != tc.wantCharset {
			t.Errorf("parseContentType(%q) = (%q, %q), want (%q, %q)", tc.header, mimeType, charsetLabel, tc.wantMIME, tc.wantCharset)
		}
	}
}

func TestFencedWrapsWithLanguage(t *testing.T) {
	out := fenced("{\"a\":1}\n", "json")
	if !strings.HasPrefix(out, "```json\n") || !strings.HasSuffix(out, "\n```") {
		t.Fatalf("unexpected fenced output: %q", out)
	}
}

func TestToUTF8PassesThroughUTF8(t *testing.T) {
	body := []byte("hello")
	out, err := toUTF8(body, "utf-8")
	if err != nil {
		t.Fatalf("toUTF8: %v", err)
	}
	if string(out) != "hello" {
		t.Fatalf("expected passthrough, got %q", out)
	}
}
