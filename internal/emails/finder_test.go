package emails

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homePage = `<html><body>
<a href="mailto:Info@Example.com?subject=Hello">Email us</a>
<a href="/about">sales@example.com</a>
<a href="/img/logo@2x.png">logo</a>
<a href="/contact-us">Reach us</a>
<a href="/locations">Contact</a>
<a href="/contact-us#form">Contact form</a>
<a href="mailto:contact@example.com">contact@example.com</a>
<p>plain text hidden@example.com is not in an anchor</p>
</body></html>`

const contactPage = `<html><body>
<a href="mailto:frontdesk@example.com">Front desk</a>
<a href="mailto:info@example.com">Info</a>
</body></html>`

func newSite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		assert.Contains(t, r.Header.Get("User-Agent"), "gmaps-contacts")
		_, _ = io.WriteString(w, homePage)
	})
	mux.HandleFunc("/contact-us", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, contactPage)
	})
	mux.HandleFunc("/locations", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFind(t *testing.T) {
	srv, hits := newSite(t)

	got, err := NewFinder().Find(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"contact@example.com",
		"frontdesk@example.com",
		"info@example.com",
		"sales@example.com",
	}, got)
	// Home page, /contact-us once (fragment dropped), /locations.
	assert.Equal(t, int32(3), hits.Load())
}

func TestFind_MaxContactPages(t *testing.T) {
	srv, hits := newSite(t)

	got, err := NewFinder(WithMaxContactPages(0)).Find(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.NotContains(t, got, "frontdesk@example.com")
	assert.Equal(t, int32(1), hits.Load())
}

func TestFind_HomePageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFinder().Find(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFind_EmptyWebsite(t *testing.T) {
	got, err := NewFinder().Find(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFind_AddsScheme(t *testing.T) {
	srv, _ := newSite(t)
	host := strings.TrimPrefix(srv.URL, "http://")

	got, err := NewFinder().Find(context.Background(), host)
	require.NoError(t, err)
	assert.Contains(t, got, "info@example.com")
}

func TestCleanEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Info@Example.com", "info@example.com"},
		{"info@example.com.", "info@example.com"},
		{"logo@2x.png", ""},
		{"photo@site.JPG", ""},
		{"a@b.", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanEmail(tt.in), tt.in)
	}
}
