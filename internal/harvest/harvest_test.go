package harvest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gmaps-contacts/internal/artifact"
	"github.com/sells-group/gmaps-contacts/internal/metrics"
	"github.com/sells-group/gmaps-contacts/internal/model"
	"github.com/sells-group/gmaps-contacts/internal/planner"
	"github.com/sells-group/gmaps-contacts/internal/postal"
	"github.com/sells-group/gmaps-contacts/internal/store"
	"github.com/sells-group/gmaps-contacts/pkg/google"
	"github.com/sells-group/gmaps-contacts/pkg/google/mocks"
)

var circle = google.Coordinates{Lat: 41.88, Lng: -87.62, Radius: 900}

func row(name, postal string) *model.Row {
	return &model.Row{Establishment: name, PostalCode: postal, State: "IL", DataSource: "details?placeid=" + name}
}

func key(t *testing.T, category, postal string) model.WorkKey {
	t.Helper()
	k, err := model.NewWorkKey(category, postal)
	require.NoError(t, err)
	return k
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "gmaps.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestHarvestKey_WritesFilteredArtifact(t *testing.T) {
	places := mocks.NewMockClient(t)
	places.On("Geocode", mock.Anything, "60601", "US").Return(&circle, nil)
	places.On("NearbySearch", mock.Anything, "cafe", circle).Return([]string{"a", "b", "a", "c"}, nil)
	places.On("Details", mock.Anything, "a").Return(row("a", "60601"), nil).Once()
	places.On("Details", mock.Anything, "b").Return(row("b", "60602"), nil).Once()
	places.On("Details", mock.Anything, "c").Return(row("c", "60601-3204"), nil).Once()

	root := t.TempDir()
	rec := metrics.New()
	h := New(places, root, WithMetrics(rec))

	out, err := h.HarvestKey(context.Background(), key(t, "cafe", "60601"), "US")
	require.NoError(t, err)
	assert.Equal(t, KeyCompleted, out.Status)
	assert.Equal(t, 3, out.Places)
	assert.Equal(t, 2, out.Rows)
	assert.Equal(t, filepath.Join(root, "cafe", "US", "60601.csv"), out.Path)

	rows, err := artifact.ReadFile(out.Path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Establishment)
	assert.Equal(t, "c", rows[1].Establishment)
}

func TestHarvestKey_NotGeocodedIsEmpty(t *testing.T) {
	places := mocks.NewMockClient(t)
	places.On("Geocode", mock.Anything, "00000", "US").Return(nil, nil)

	root := t.TempDir()
	out, err := New(places, root).HarvestKey(context.Background(), key(t, "cafe", "00000"), "US")
	require.NoError(t, err)
	assert.Equal(t, KeyEmpty, out.Status)

	skipped, err := planner.ReadSkipLog(filepath.Join(root, "cafe", "US", "logs", "logfile"), "cafe")
	require.NoError(t, err)
	assert.True(t, skipped.Has(key(t, "cafe", "00000")))
}

func TestHarvestKey_AllFilteredIsEmpty(t *testing.T) {
	places := mocks.NewMockClient(t)
	places.On("Geocode", mock.Anything, "60601", "US").Return(&circle, nil)
	places.On("NearbySearch", mock.Anything, "bar", circle).Return([]string{"x"}, nil)
	places.On("Details", mock.Anything, "x").Return(row("x", "60654"), nil)

	root := t.TempDir()
	out, err := New(places, root).HarvestKey(context.Background(), key(t, "bar", "60601"), "US")
	require.NoError(t, err)
	assert.Equal(t, KeyEmpty, out.Status)
	assert.NoFileExists(t, filepath.Join(root, "bar", "US", "60601.csv"))
}

func TestHarvestKey_APIErrorRecordsNothing(t *testing.T) {
	denied := &google.APIStatusError{Endpoint: google.EndpointDetails, Status: google.StatusRequestDenied}
	places := mocks.NewMockClient(t)
	places.On("Geocode", mock.Anything, "60601", "US").Return(&circle, nil)
	places.On("NearbySearch", mock.Anything, "cafe", circle).Return([]string{"a"}, nil)
	places.On("Details", mock.Anything, "a").Return(nil, denied)

	root := t.TempDir()
	_, err := New(places, root).HarvestKey(context.Background(), key(t, "cafe", "60601"), "US")
	require.Error(t, err)

	var apiErr *google.APIStatusError
	assert.True(t, errors.As(err, &apiErr))
	_, statErr := os.Stat(filepath.Join(root, "cafe", "US"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestHarvestKey_UsesPlaceCache(t *testing.T) {
	places := mocks.NewMockClient(t)
	places.On("Geocode", mock.Anything, mock.Anything, "US").Return(&circle, nil)
	places.On("NearbySearch", mock.Anything, "cafe", circle).Return([]string{"shared"}, nil)
	places.On("Details", mock.Anything, "shared").Return(row("shared", "60601"), nil).Once()

	st := newTestStore(t)
	rec := metrics.New()
	h := New(places, t.TempDir(), WithStore(st, time.Hour), WithMetrics(rec))

	first, err := h.HarvestKey(context.Background(), key(t, "cafe", "60601"), "US")
	require.NoError(t, err)
	assert.Equal(t, KeyCompleted, first.Status)

	second, err := h.HarvestKey(context.Background(), key(t, "cafe", "60602"), "US")
	require.NoError(t, err)
	assert.Equal(t, KeyEmpty, second.Status)
}

func TestHarvestPostalCodes_SkipsDoneKeys(t *testing.T) {
	root := t.TempDir()
	ledger := planner.NewLedger(planner.Layout{Root: root, Category: "cafe", Country: "US"})
	_, err := ledger.RecordArtifact(key(t, "cafe", "60601"), []model.Row{*row("old", "60601")})
	require.NoError(t, err)
	require.NoError(t, ledger.RecordEmpty(key(t, "cafe", "60603")))

	places := mocks.NewMockClient(t)
	places.On("Geocode", mock.Anything, "60602", "US").Return(&circle, nil)
	places.On("NearbySearch", mock.Anything, "cafe", circle).Return([]string{"n"}, nil)
	places.On("Details", mock.Anything, "n").Return(row("n", "60602"), nil)

	st := newTestStore(t)
	report, err := New(places, root, WithStore(st, 0)).
		HarvestPostalCodes(context.Background(), []string{"cafe"}, []string{"60601", "60602", "60603"}, "US")
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, KeySkipped, report.Outcomes[0].Status)
	assert.Equal(t, filepath.Join(root, "cafe", "US", "60601.csv"), report.Outcomes[0].Path)
	assert.Equal(t, KeyCompleted, report.Outcomes[1].Status)
	assert.Equal(t, KeySkipped, report.Outcomes[2].Status)
	assert.Equal(t, model.RunCounts{Completed: 1, Skipped: 2, Rows: 1}, report.Counts)

	run, err := st.GetRun(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, report.Counts, run.Counts)
}

func TestHarvestPostalCodes_ValidatesInput(t *testing.T) {
	h := New(mocks.NewMockClient(t), t.TempDir())

	_, err := h.HarvestPostalCodes(context.Background(), []string{"not_a_type"}, []string{"60601"}, "US")
	assert.Error(t, err)
	_, err = h.HarvestPostalCodes(context.Background(), []string{"cafe"}, []string{"!!"}, "US")
	assert.Error(t, err)
	_, err = h.HarvestPostalCodes(context.Background(), []string{"cafe"}, []string{"60601"}, "ZZZ")
	assert.Error(t, err)
}

func TestHarvestPostalCodes_CountryCaseSharesStateLayout(t *testing.T) {
	root := t.TempDir()
	places := mocks.NewMockClient(t)
	places.On("Geocode", mock.Anything, "60601", "US").Return(&circle, nil).Once()
	places.On("NearbySearch", mock.Anything, "cafe", circle).Return([]string{"p"}, nil).Once()
	places.On("Details", mock.Anything, "p").Return(row("loop", "60601"), nil).Once()

	h := New(places, root)
	report, err := h.HarvestPostalCodes(context.Background(), []string{"cafe"}, []string{"60601"}, "us")
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, KeyCompleted, report.Outcomes[0].Status)
	assert.Equal(t, filepath.Join(root, "cafe", "US", "60601.csv"), report.Outcomes[0].Path)

	outcome, err := h.PlanState("cafe", "IL", loadTable(t))
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Completed)
	assert.Empty(t, outcome.Pending)

	// The state harvest accepts the same spelling and fetches nothing again.
	state, err := h.HarvestState(context.Background(), "cafe", "il", "us", StateOptions{Table: loadTable(t)})
	require.NoError(t, err)
	assert.Empty(t, state.Outcomes)
	assert.Equal(t, 1, state.Resumed)
	assert.Equal(t, 1, state.RollupRows)
}

const nhTable = `Zip Code,State Abbreviation
3031,NH
3032,NH
3033,NH
3034,NH
60601,IL
`

func loadTable(t *testing.T) *postal.Table {
	t.Helper()
	tbl, err := postal.ReadTable(strings.NewReader(nhTable))
	require.NoError(t, err)
	return tbl
}

func TestHarvestState_ResumesAndRollsUp(t *testing.T) {
	root := t.TempDir()
	ledger := planner.NewLedger(planner.Layout{Root: root, Category: "cafe", Country: "US"})
	_, err := ledger.RecordArtifact(key(t, "cafe", "03031"), []model.Row{*row("first", "03031"), *row("second", "03031")})
	require.NoError(t, err)
	require.NoError(t, ledger.RecordEmpty(key(t, "cafe", "03032")))

	places := mocks.NewMockClient(t)
	places.On("Geocode", mock.Anything, "03033", "US").Return(&circle, nil).Once()
	places.On("Geocode", mock.Anything, "03034", "US").Return(nil, nil).Once()
	places.On("NearbySearch", mock.Anything, "cafe", circle).Return([]string{"p"}, nil).Once()
	places.On("Details", mock.Anything, "p").Return(row("third", "03033"), nil).Once()

	st := newTestStore(t)
	h := New(places, root, WithStore(st, 0))

	report, err := h.HarvestState(context.Background(), "cafe", "nh", "US", StateOptions{Table: loadTable(t), XLSX: true})
	require.NoError(t, err)
	assert.Equal(t, "NH", report.State)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Resumed)
	assert.Equal(t, model.RunCounts{Completed: 1, Empty: 1, Rows: 1}, report.Counts)
	assert.Equal(t, planner.StatusRolledUp, report.Status)
	assert.Equal(t, filepath.Join(root, "cafe", "US", "NH_all_postal_codes.csv"), report.RollupPath)
	assert.FileExists(t, report.XLSXPath)

	rows, err := artifact.ReadFile(report.RollupPath)
	require.NoError(t, err)
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Establishment)
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)
	assert.Equal(t, 3, report.RollupRows)

	// A second run fetches nothing and still reports the rollup.
	again, err := h.HarvestState(context.Background(), "cafe", "NH", "US", StateOptions{Table: loadTable(t)})
	require.NoError(t, err)
	assert.Empty(t, again.Outcomes)
	assert.Equal(t, planner.StatusRolledUp, again.Status)

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, model.RunStatusComplete, r.Status)
		assert.Equal(t, "cafe/NH", r.Region)
	}
}

func TestHarvestState_AbortKeepsProgress(t *testing.T) {
	root := t.TempDir()
	boom := &google.APIStatusError{Endpoint: google.EndpointGeocode, Status: google.StatusOverQueryLimit}

	places := mocks.NewMockClient(t)
	places.On("Geocode", mock.Anything, "03031", "US").Return(nil, nil).Once()
	places.On("Geocode", mock.Anything, "03032", "US").Return(nil, boom).Once()

	st := newTestStore(t)
	h := New(places, root, WithStore(st, 0))
	report, err := h.HarvestState(context.Background(), "cafe", "NH", "US", StateOptions{Table: loadTable(t)})
	require.Error(t, err)
	assert.Equal(t, 1, report.Counts.Empty)
	assert.NoFileExists(t, filepath.Join(root, "cafe", "US", "NH_all_postal_codes.csv"))

	run, err := st.GetRun(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "OVER_QUERY_LIMIT")

	outcome, err := h.PlanState("cafe", "NH", loadTable(t))
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Empty)
	assert.Equal(t, []model.WorkKey{
		key(t, "cafe", "03032"),
		key(t, "cafe", "03033"),
		key(t, "cafe", "03034"),
	}, outcome.Pending)
}

func TestHarvestState_Validation(t *testing.T) {
	h := New(mocks.NewMockClient(t), t.TempDir())
	ctx := context.Background()

	_, err := h.HarvestState(ctx, "cafe", "NH", "CA", StateOptions{Table: loadTable(t)})
	assert.Error(t, err)
	_, err = h.HarvestState(ctx, "cafe", "NH", "US", StateOptions{})
	assert.Error(t, err)
	_, err = h.HarvestState(ctx, "cafe", "XX", "US", StateOptions{Table: loadTable(t)})
	assert.Error(t, err)
	_, err = h.HarvestState(ctx, "cafe", "TX", "US", StateOptions{Table: loadTable(t)})
	assert.Error(t, err)
}

func TestKeyStatusString(t *testing.T) {
	assert.Equal(t, "completed", KeyCompleted.String())
	assert.Equal(t, "empty", KeyEmpty.String())
	assert.Equal(t, "skipped", KeySkipped.String())
}
