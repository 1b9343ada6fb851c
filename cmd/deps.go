package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gmaps-contacts/internal/credential"
	"github.com/sells-group/gmaps-contacts/internal/emails"
	"github.com/sells-group/gmaps-contacts/internal/harvest"
	"github.com/sells-group/gmaps-contacts/internal/metrics"
	"github.com/sells-group/gmaps-contacts/internal/resilience"
	"github.com/sells-group/gmaps-contacts/internal/store"
	"github.com/sells-group/gmaps-contacts/pkg/google"
)

// initStore opens and migrates the SQLite store, or returns nil when the
// store is disabled.
func initStore(ctx context.Context) (store.Store, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// keyProvider resolves the API key from config, then the key file, and
// finally by asking on in/out.
func keyProvider(in io.Reader, out io.Writer) *credential.ChainProvider {
	return credential.Chain(
		credential.Static(cfg.Google.APIKey),
		&credential.Prompting{File: cfg.Google.KeyFile, In: in, Out: out, Confirm: true},
	)
}

func newPlacesClient(creds google.CredentialProvider, rec *metrics.Recorder) google.Client {
	retry := resilience.RetryConfig{
		MaxAttempts:    cfg.Google.MaxAttempts,
		JitterFraction: 0.2,
		OnRetry:        resilience.RetryLogger("google", "request"),
	}
	return google.NewClient(creds,
		google.WithBaseURL(cfg.Google.BaseURL),
		google.WithHTTPClient(&http.Client{Timeout: cfg.Google.Timeout()}),
		google.WithPageDelay(cfg.Google.PageDelay()),
		google.WithRateLimit(cfg.Google.RatePerSec),
		google.WithRetry(retry),
		google.WithRadius(cfg.Google.RadiusFactor, cfg.Google.MaxRadiusM),
		google.WithObserver(rec.APIRequest),
	)
}

func newEnricher(rec *metrics.Recorder) *emails.Enricher {
	finder := emails.NewFinder(
		emails.WithTimeout(cfg.Email.Timeout()),
		emails.WithUserAgent(cfg.Email.UserAgent),
		emails.WithMaxContactPages(cfg.Email.MaxContactPages),
	)
	return emails.NewEnricher(finder,
		emails.WithConcurrency(cfg.Email.Concurrency),
		emails.WithMetrics(rec),
	)
}

// harvestEnv bundles what the harvesting commands share.
type harvestEnv struct {
	Harvester *harvest.Harvester
	Enricher  *emails.Enricher
	Metrics   *metrics.Recorder
	Store     store.Store
}

func (e *harvestEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

func initHarvest(ctx context.Context) (*harvestEnv, error) {
	return initHarvestWithInput(ctx, os.Stdin)
}

// initHarvestWithInput reads a missing API key from in.
func initHarvestWithInput(ctx context.Context, in io.Reader) (*harvestEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	rec := metrics.New()
	places := newPlacesClient(keyProvider(in, os.Stderr), rec)

	opts := []harvest.Option{harvest.WithMetrics(rec)}
	if st != nil {
		opts = append(opts, harvest.WithStore(st, cfg.Store.PlaceTTL()))
	}

	return &harvestEnv{
		Harvester: harvest.New(places, filepath.Clean(cfg.Data.Dir), opts...),
		Enricher:  newEnricher(rec),
		Metrics:   rec,
		Store:     st,
	}, nil
}
