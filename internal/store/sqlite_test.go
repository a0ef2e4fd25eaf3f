package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartlens/dartlens/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func testBundle() *model.AnalysisBundle {
	v := 12_000.0
	return &model.AnalysisBundle{
		Statements: []*model.Statement{{
			Period: model.PeriodKey{FiscalYear: 2025, Quarter: 3, PeriodType: model.PeriodYTD},
			Income: model.ItemMap{
				model.ConceptRevenue: {Name: "매출액", Value: &v},
			},
		}},
		DataQuality: model.DataQuality{Coverage: 1.0 / 12.0},
	}
}

func TestSQLiteGetRun_NormalizesLegacyReasonCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "회사A")
	require.NoError(t, err)

	// A bundle persisted by an older writer may carry legacy reason strings;
	// hydration maps them onto the closed enum.
	b := testBundle()
	b.Statements[0].KeyMetricsCompare = model.KeyMetricsCompare{
		model.ConceptRevenue: {CompareBasis: model.BasisNone, ReasonCode: "NO_PREV_YEAR"},
	}
	require.NoError(t, s.UpdateRunResult(ctx, run.ID, b))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	cmp := got.Bundle.Statements[0].KeyMetricsCompare[model.ConceptRevenue]
	assert.Equal(t, model.ReasonMissingPrevYearValue, cmp.ReasonCode)
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "테스트전자")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

	require.NoError(t, s.UpdateRunResult(ctx, run.ID, testBundle()))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "테스트전자", got.Company)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Bundle)
	require.Len(t, got.Bundle.Statements, 1)

	// nil stays nil through the JSON round trip; a reported figure survives.
	st := got.Bundle.Statements[0]
	require.NotNil(t, st.Value(model.ConceptRevenue))
	assert.InDelta(t, 12_000, *st.Value(model.ConceptRevenue), 1e-9)
	assert.Nil(t, st.Value(model.ConceptTotalAssets))
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteUpdateMissingRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.UpdateRunStatus(ctx, "nope", model.RunStatusRunning)
	assert.Error(t, err)

	err = s.UpdateRunResult(ctx, "nope", testBundle())
	assert.Error(t, err)
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, "회사A")
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "회사B")
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, a.ID, model.RunStatusComplete))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, a.ID, complete[0].ID)

	byCompany, err := s.ListRuns(ctx, RunFilter{Company: "회사B"})
	require.NoError(t, err)
	require.Len(t, byCompany, 1)
	assert.Equal(t, "회사B", byCompany[0].Company)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
