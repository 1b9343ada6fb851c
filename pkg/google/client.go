// Package google is a client for the Google Geocoding and Places web
// services (XML output). It resolves a postal code to a search circle, lists
// the place ids of one type inside that circle, and fetches each place's
// contact details.
package google

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/sells-group/gmaps-contacts/internal/model"
	"github.com/sells-group/gmaps-contacts/internal/resilience"
)

const (
	defaultBaseURL   = "https://maps.googleapis.com/maps/api"
	defaultPageDelay = 2 * time.Second
	maxResponseBytes = 4 << 20
)

// Endpoint names, used in errors and request observations.
const (
	EndpointGeocode = "geocode"
	EndpointNearby  = "nearbysearch"
	EndpointDetails = "details"
)

// Client performs Geocoding and Places API operations.
type Client interface {
	// Geocode returns the search circle for a postal code, or nil when the
	// code is unknown to the Geocoding API.
	Geocode(ctx context.Context, postalCode, country string) (*Coordinates, error)

	// NearbySearch returns the place ids of the given type inside the
	// circle, following every result page.
	NearbySearch(ctx context.Context, placeType string, at Coordinates) ([]string, error)

	// Details returns the contact row for a place id.
	Details(ctx context.Context, placeID string) (*model.Row, error)
}

// CredentialProvider supplies the API key. It is consulted on every request.
type CredentialProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to CredentialProvider.
type CredentialFunc func(ctx context.Context) (string, error)

// APIKey implements CredentialProvider.
func (f CredentialFunc) APIKey(ctx context.Context) (string, error) { return f(ctx) }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPageDelay sets the wait before requesting the next result page. The
// API rejects a next_page_token used too soon after it was issued.
func WithPageDelay(d time.Duration) Option {
	return func(c *httpClient) {
		if d >= 0 {
			c.pageDelay = d
		}
	}
}

// WithRateLimit caps requests per second across all endpoints.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := max(int(rps), 1)
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the retry policy. The default attempts each request once.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithRadius sets the factor applied to the viewport diagonal and the
// maximum search radius in meters.
func WithRadius(factor, maxMeters float64) Option {
	return func(c *httpClient) {
		if factor > 0 {
			c.radiusFactor = factor
		}
		if maxMeters > 0 {
			c.maxRadius = maxMeters
		}
	}
}

// WithObserver registers a callback invoked once per completed request with
// the endpoint and the API status (or "http_<code>" / "error").
func WithObserver(fn func(endpoint, status string)) Option {
	return func(c *httpClient) {
		c.observe = fn
	}
}

type httpClient struct {
	creds        CredentialProvider
	baseURL      string
	http         *http.Client
	limiter      *rate.Limiter
	retry        resilience.RetryConfig
	pageDelay    time.Duration
	radiusFactor float64
	maxRadius    float64
	observe      func(endpoint, status string)
}

// NewClient creates a Google web-service client.
func NewClient(creds CredentialProvider, opts ...Option) Client {
	c := &httpClient{
		creds:   creds,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:      rate.NewLimiter(10, 10),
		retry:        resilience.NoRetry(),
		pageDelay:    defaultPageDelay,
		radiusFactor: defaultRadiusFactor,
		maxRadius:    maxSearchRadius,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// statusEnvelope is the part of every XML response that carries the API status.
type statusEnvelope struct {
	Status       string `xml:"status"`
	ErrorMessage string `xml:"error_message"`
}

// get issues one GET against endpoint path, checks the HTTP and API status,
// and decodes the body into out. It returns the request URL with the key
// removed.
func (c *httpClient) get(ctx context.Context, endpoint, path string, params url.Values, out any) (string, error) {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return "", eris.Wrap(err, "google: resolve api key")
	}
	if key == "" {
		return "", eris.New("google: empty api key")
	}

	q := cloneValues(params)
	q.Set("key", key)
	reqURL := c.baseURL + path + "?" + q.Encode()
	q.Del("key")
	publicURL := c.baseURL + path + "?" + q.Encode()

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, endpoint, reqURL)
	})
	if err != nil {
		return publicURL, err
	}

	if err := decodeXML(body, out); err != nil {
		return publicURL, eris.Wrapf(err, "google: %s decode response", endpoint)
	}
	return publicURL, nil
}

func (c *httpClient) do(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(err, "google: %s rate limit", endpoint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "google: %s create request", endpoint)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(endpoint, "error")
		return nil, eris.Wrapf(redactErr(err), "google: %s send request", endpoint)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.record(endpoint, "error")
		return nil, eris.Wrapf(err, "google: %s read response", endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		c.record(endpoint, "http_"+strconv.Itoa(resp.StatusCode))
		err := eris.Errorf("google: %s unexpected status %d: %s", endpoint, resp.StatusCode, truncate(string(body), 200))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var env statusEnvelope
	if err := decodeXML(body, &env); err != nil {
		c.record(endpoint, "error")
		return nil, eris.Wrapf(err, "google: %s decode status", endpoint)
	}
	c.record(endpoint, env.Status)

	switch env.Status {
	case StatusOK, StatusZeroResults:
		return body, nil
	case StatusOverQueryLimit:
		return nil, resilience.NewTransientError(newAPIStatusError(endpoint, env), 0)
	default:
		return nil, newAPIStatusError(endpoint, env)
	}
}

func (c *httpClient) record(endpoint, status string) {
	if c.observe != nil {
		c.observe(endpoint, status)
	}
}

// decodeXML decodes body into v, transcoding non-UTF-8 charsets.
func decodeXML(body []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return dec.Decode(v)
}

// redactErr strips the key from the request URL carried by *url.Error.
func redactErr(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return &url.Error{Op: ue.Op, URL: redactURL(ue.URL), Err: ue.Err}
	}
	return err
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	q.Del("key")
	u.RawQuery = q.Encode()
	return u.String()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+1)
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
