package harvest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gmaps-contacts/internal/artifact"
	"github.com/sells-group/gmaps-contacts/internal/model"
	"github.com/sells-group/gmaps-contacts/internal/planner"
	"github.com/sells-group/gmaps-contacts/internal/postal"
)

// StateCountry is the only country with a postal reference table.
const StateCountry = "US"

// StateOptions configures HarvestState.
type StateOptions struct {
	Table *postal.Table // required
	XLSX  bool          // also export the rollup as XLSX
}

// RegionReport summarizes a whole-state harvest.
type RegionReport struct {
	Report
	Category string
	State    string

	Total      int // keys in the state
	Resumed    int // keys already done before this run
	RollupPath string
	XLSXPath   string
	RollupRows int
	Status     planner.Status
}

// PlanState resumes the state's key space from disk without fetching.
func (h *Harvester) PlanState(category, state string, table *postal.Table) (planner.Outcome, error) {
	keys, ledger, err := h.stateKeys(category, state, table)
	if err != nil {
		return planner.Outcome{}, err
	}
	return resume(ledger, keys, state)
}

func (h *Harvester) stateKeys(category, state string, table *postal.Table) ([]model.WorkKey, *planner.Ledger, error) {
	if table == nil {
		return nil, nil, eris.New("harvest: postal table is required for a state harvest")
	}
	state = strings.ToUpper(state)
	if err := model.ValidCategory(category); err != nil {
		return nil, nil, err
	}
	if err := model.ValidStateCode(state); err != nil {
		return nil, nil, err
	}
	keys := table.Keys(category, state)
	if len(keys) == 0 {
		return nil, nil, eris.Errorf("harvest: no postal codes for state %s", state)
	}
	return keys, planner.NewLedger(h.Layout(category, StateCountry)), nil
}

func resume(ledger *planner.Ledger, keys []model.WorkKey, state string) (planner.Outcome, error) {
	completed, err := ledger.Completed()
	if err != nil {
		return planner.Outcome{}, err
	}
	skipped, err := ledger.Skipped()
	if err != nil {
		return planner.Outcome{}, err
	}
	rolledUp, err := ledger.RollupExists(state)
	if err != nil {
		return planner.Outcome{}, err
	}
	return planner.Resume(keys, completed, skipped, planner.WithRollup(rolledUp)), nil
}

// HarvestState fetches every pending key of category in state, in ascending
// postal-code order, then writes the state rollup over all completed keys.
// An API error stops the run; keys recorded before it stay recorded and are
// not fetched again on the next run.
func (h *Harvester) HarvestState(ctx context.Context, category, state, country string, opts StateOptions) (*RegionReport, error) {
	state = strings.ToUpper(state)
	if cc, err := model.NormalizeCountryCode(country); err != nil || cc != StateCountry {
		return nil, eris.Errorf("harvest: state harvests support country %s only, got %q", StateCountry, country)
	}
	country = StateCountry
	keys, ledger, err := h.stateKeys(category, state, opts.Table)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("component", "harvest"),
		zap.String("category", category),
		zap.String("state", state),
	)

	outcome, err := resume(ledger, keys, state)
	if err != nil {
		return nil, err
	}

	report := &RegionReport{
		Category: category,
		State:    state,
		Total:    outcome.Total,
		Resumed:  outcome.Done(),
		Status:   outcome.Status,
	}
	report.RunID = h.startRun(ctx, model.RunKindState, category+"/"+state)

	log.Info("resuming state harvest",
		zap.Int("total", outcome.Total),
		zap.Int("completed", outcome.Completed),
		zap.Int("empty", outcome.Empty),
		zap.Int("pending", len(outcome.Pending)),
		zap.Stringer("status", outcome.Status),
	)

	for i, k := range outcome.Pending {
		log.Info("harvesting postal code",
			zap.String("postal_code", k.PostalCode),
			zap.Int("n", outcome.Done()+i+1),
			zap.Int("total", outcome.Total),
		)
		out, err := h.harvestKey(ctx, ledger, k, country)
		if err != nil {
			h.finishRun(ctx, &report.Report, err)
			return report, err
		}
		report.add(out)
	}

	if err := h.rollup(ledger, keys, report, opts.XLSX); err != nil {
		h.finishRun(ctx, &report.Report, err)
		return report, err
	}
	report.Status = planner.StatusRolledUp

	h.finishRun(ctx, &report.Report, nil)
	log.Info("state harvest complete",
		zap.Int("fetched", len(report.Outcomes)),
		zap.Int("rollup_rows", report.RollupRows),
		zap.String("rollup", report.RollupPath),
	)
	return report, nil
}

// rollup concatenates the artifacts of every completed key of the state.
func (h *Harvester) rollup(ledger *planner.Ledger, keys []model.WorkKey, report *RegionReport, xlsx bool) error {
	completed, err := ledger.Completed()
	if err != nil {
		return err
	}
	layout := ledger.Layout()
	var paths []string
	for _, k := range keys {
		if completed.Has(k) {
			paths = append(paths, layout.ArtifactPath(k.PostalCode))
		}
	}

	report.RollupPath = layout.RollupPath(report.State)
	rows, err := artifact.Rollup(paths, report.RollupPath)
	if err != nil {
		return err
	}
	report.RollupRows = len(rows)

	if xlsx {
		report.XLSXPath = layout.RollupXLSXPath(report.State)
		if err := artifact.ExportXLSX(rows, report.XLSXPath, report.Category); err != nil {
			return err
		}
	}
	return nil
}
