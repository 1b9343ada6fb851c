// Package emails scrapes establishment websites for email addresses and
// writes email-enriched copies of result CSVs.
package emails

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultMaxContactPages = 5
	defaultUserAgent       = "Mozilla/5.0 (compatible; gmaps-contacts/1.0)"
	maxPageBytes           = 2 << 20
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)

var assetExts = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// Finder collects the email addresses linked from a website's home page and
// its contact pages.
type Finder struct {
	client          *http.Client
	userAgent       string
	maxContactPages int
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) FinderOption {
	return func(f *Finder) { f.client = hc }
}

// WithTimeout sets the per-page fetch timeout.
func WithTimeout(d time.Duration) FinderOption {
	return func(f *Finder) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FinderOption {
	return func(f *Finder) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxContactPages caps how many contact pages are followed per site.
func WithMaxContactPages(n int) FinderOption {
	return func(f *Finder) {
		if n >= 0 {
			f.maxContactPages = n
		}
	}
}

// NewFinder creates a Finder.
func NewFinder(opts ...FinderOption) *Finder {
	f := &Finder{
		client: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent:       defaultUserAgent,
		maxContactPages: defaultMaxContactPages,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Find returns the addresses found on website and on up to the configured
// number of its contact pages, unique and sorted. A failing contact page is
// logged and skipped; a failing home page is an error.
func (f *Finder) Find(ctx context.Context, website string) ([]string, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return nil, nil
	}
	if !strings.Contains(website, "://") {
		website = "http://" + strings.TrimLeft(website, "/")
	}
	base, err := url.Parse(website)
	if err != nil || base.Host == "" {
		return nil, eris.Errorf("emails: invalid website %q", website)
	}

	doc, err := f.fetch(ctx, base.String())
	if err != nil {
		return nil, err
	}

	found := make(map[string]struct{})
	collect(doc, found)

	for _, link := range contactLinks(doc, base, f.maxContactPages) {
		page, err := f.fetch(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Debug("emails: contact page failed", zap.String("url", link), zap.Error(err))
			continue
		}
		collect(page, found)
	}

	out := make([]string, 0, len(found))
	for e := range found {
		out = append(out, e)
	}
	slices.Sort(out)
	return out, nil
}

func (f *Finder) fetch(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "emails: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "emails: fetch %s", target)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("emails: %s responded with status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "emails: read %s", target)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "emails: parse %s", target)
	}
	return doc, nil
}

// collect adds the addresses in every anchor's href and text to found.
func collect(doc *goquery.Document, found map[string]struct{}) {
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		var parts []string
		if href, ok := sel.Attr("href"); ok {
			if unescaped, err := url.PathUnescape(href); err == nil {
				href = unescaped
			}
			parts = append(parts, href)
		}
		parts = append(parts, sel.Text())

		for _, m := range emailRe.FindAllString(strings.Join(parts, " "), -1) {
			if e := cleanEmail(m); e != "" {
				found[e] = struct{}{}
			}
		}
	})
}

func cleanEmail(raw string) string {
	e := strings.ToLower(strings.TrimRight(raw, ".-"))
	at := strings.LastIndex(e, "@")
	if at < 1 || !strings.Contains(e[at:], ".") {
		return ""
	}
	if slices.Contains(assetExts, path.Ext(e)) {
		return ""
	}
	return e
}

// contactLinks returns up to limit distinct page links whose href or text
// mentions "contact", resolved against base.
func contactLinks(doc *goquery.Document, base *url.URL, limit int) []string {
	var links []string
	seen := map[string]struct{}{base.String(): {}}
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(links) >= limit {
			return false
		}
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		lowerHref := strings.ToLower(href)
		if href == "" || strings.HasPrefix(lowerHref, "mailto:") || strings.HasPrefix(lowerHref, "tel:") ||
			strings.HasPrefix(lowerHref, "javascript:") {
			return true
		}
		if !strings.Contains(lowerHref, "contact") && !strings.Contains(strings.ToLower(sel.Text()), "contact") {
			return true
		}

		u, err := base.Parse(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return true
		}
		u.Fragment = ""
		abs := u.String()
		if _, ok := seen[abs]; ok {
			return true
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
		return true
	})
	return links
}
