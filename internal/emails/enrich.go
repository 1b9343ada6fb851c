package emails

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/gmaps-contacts/internal/artifact"
	"github.com/sells-group/gmaps-contacts/internal/metrics"
	"github.com/sells-group/gmaps-contacts/internal/planner"
)

const (
	defaultConcurrency = 4
	defaultURLColumn   = "website"
	emailColumnPrefix  = "email_"
)

// EmailFinder returns the addresses published on a website.
type EmailFinder interface {
	Find(ctx context.Context, website string) ([]string, error)
}

// EnrichStatus reports what Enrich did with the target file.
type EnrichStatus int

const (
	// EnrichStatusCreated means the enriched copy was written.
	EnrichStatusCreated EnrichStatus = iota
	// EnrichStatusExists means the copy already existed and was left alone.
	EnrichStatusExists
)

func (s EnrichStatus) String() string {
	switch s {
	case EnrichStatusCreated:
		return "created"
	case EnrichStatusExists:
		return "exists"
	default:
		return "unknown"
	}
}

// EnrichResult summarizes one Enrich call.
type EnrichResult struct {
	Path       string
	Status     EnrichStatus
	Rows       int
	WithEmails int
	Columns    int // email_N columns added
}

// Enricher writes email-enriched copies of result CSVs.
type Enricher struct {
	finder      EmailFinder
	concurrency int
	urlColumn   string
	metrics     *metrics.Recorder
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithConcurrency bounds the number of websites fetched at once.
func WithConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithURLColumn names the column holding the website.
func WithURLColumn(name string) EnricherOption {
	return func(e *Enricher) {
		if name != "" {
			e.urlColumn = name
		}
	}
}

// WithMetrics records found addresses on rec.
func WithMetrics(rec *metrics.Recorder) EnricherOption {
	return func(e *Enricher) { e.metrics = rec }
}

// NewEnricher creates an Enricher backed by finder.
func NewEnricher(finder EmailFinder, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		finder:      finder,
		concurrency: defaultConcurrency,
		urlColumn:   defaultURLColumn,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enrich writes <stem>_with_emails.csv beside csvPath: the original columns
// plus email_0..email_{n-1}, where n is the most addresses found for a row.
// Rows whose website cannot be scraped get no addresses. An existing copy
// is kept unless overwrite is set.
func (e *Enricher) Enrich(ctx context.Context, csvPath string, overwrite bool) (EnrichResult, error) {
	target := planner.EmailsPath(csvPath)
	res := EnrichResult{Path: target}

	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			res.Status = EnrichStatusExists
			zap.L().Info("emails: enriched copy already exists", zap.String("path", target))
			return res, nil
		} else if !os.IsNotExist(err) {
			return res, eris.Wrapf(err, "emails: stat %s", target)
		}
	}

	header, records, err := readCSV(csvPath)
	if err != nil {
		return res, err
	}
	col := -1
	for i, h := range header {
		if h == e.urlColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return res, eris.Errorf("emails: %s has no %q column", csvPath, e.urlColumn)
	}

	log := zap.L().With(zap.String("component", "emails"), zap.String("csv", csvPath))
	log.Info("emails: scraping websites", zap.Int("rows", len(records)))

	found := make([][]string, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, rec := range records {
		if col >= len(rec) || rec[col] == "" {
			continue
		}
		website := rec[col]
		g.Go(func() error {
			addrs, err := e.finder.Find(gctx, website)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("emails: website failed", zap.String("website", website), zap.Error(err))
				return nil
			}
			found[i] = addrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, eris.Wrap(err, "emails: enrich")
	}

	for _, addrs := range found {
		if len(addrs) > 0 {
			res.WithEmails++
			e.metrics.EmailsFound(len(addrs))
		}
		res.Columns = max(res.Columns, len(addrs))
	}
	res.Rows = len(records)

	outHeader := append([]string(nil), header...)
	for n := range res.Columns {
		outHeader = append(outHeader, emailColumnPrefix+strconv.Itoa(n))
	}

	err = artifact.WriteAtomic(target, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(outHeader); err != nil {
			return err
		}
		for i, rec := range records {
			row := make([]string, len(header), len(outHeader))
			copy(row, rec)
			for n := range res.Columns {
				v := ""
				if n < len(found[i]) {
					v = found[i][n]
				}
				row = append(row, v)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return res, eris.Wrapf(err, "emails: write %s", target)
	}

	res.Status = EnrichStatusCreated
	log.Info("emails: enriched copy written",
		zap.String("path", target),
		zap.Int("rows", res.Rows),
		zap.Int("with_emails", res.WithEmails),
	)
	return res, nil
}

// readCSV reads a whole CSV. Short rows are allowed; rows wider than the
// header are rejected.
func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "emails: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrapf(err, "emails: read %s", path)
	}
	if len(all) == 0 {
		return nil, nil, eris.Errorf("emails: %s is empty", path)
	}
	header := all[0]
	for i, rec := range all[1:] {
		if len(rec) > len(header) {
			return nil, nil, eris.Errorf("emails: %s row %d has %d fields, header has %d", path, i+1, len(rec), len(header))
		}
	}
	return header, all[1:], nil
}
