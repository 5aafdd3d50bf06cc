package triage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/campusops/triagecore/api/schemas"
	"github.com/campusops/triagecore/internal/engine"
	"github.com/campusops/triagecore/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var frozenNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func statusPtr(s schemas.IssueStatus) *schemas.IssueStatus { return &s }

// sequence records the interleaving of store writes and broadcasts so tests
// can assert the persist-then-broadcast ordering.
type sequence struct {
	mu      sync.Mutex
	entries []string
}

func (s *sequence) record(entry string) {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

func (s *sequence) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...)
}

// recordingStore delegates to the in-memory store and notes every save.
type recordingStore struct {
	*store.Memory
	seq     *sequence
	saveErr error
}

func (r *recordingStore) SaveIssue(ctx context.Context, rec schemas.IssueRecord) error {
	if r.saveErr != nil {
		r.seq.record("save-failed")
		return r.saveErr
	}
	r.seq.record("save")
	return r.Memory.SaveIssue(ctx, rec)
}

// recordingBroadcaster captures every published event.
type recordingBroadcaster struct {
	seq        *sequence
	publishErr error

	mu     sync.Mutex
	events []schemas.LifecycleEvent
}

func (r *recordingBroadcaster) Publish(_ context.Context, event schemas.LifecycleEvent) error {
	r.seq.record("publish:" + string(event.Type))
	if r.publishErr != nil {
		return r.publishErr
	}
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *recordingBroadcaster) published() []schemas.LifecycleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schemas.LifecycleEvent(nil), r.events...)
}

type fixture struct {
	service     *Service
	store       *recordingStore
	broadcaster *recordingBroadcaster
	seq         *sequence
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	eng, err := engine.New(engine.DefaultScoringConfig())
	require.NoError(t, err)

	seq := &sequence{}
	st := &recordingStore{Memory: store.NewMemory(zaptest.NewLogger(t)), seq: seq}
	bc := &recordingBroadcaster{seq: seq}

	return &fixture{
		service:     NewService(eng, st, bc, func() time.Time { return frozenNow }, zaptest.NewLogger(t)),
		store:       st,
		broadcaster: bc,
		seq:         seq,
	}
}

func safetyInput() schemas.PriorityInput {
	return schemas.PriorityInput{
		Category:    schemas.CategorySafety,
		Severity:    intPtr(8),
		Description: "Sparking outlet next to the emergency exit",
		BuildingID:  "SCI-04",
		SafetyRisk:  boolPtr(true),
	}
}

func TestCreateIssue_ScoresPersistsThenBroadcasts(t *testing.T) {
	f := newFixture(t)

	rec, err := f.service.CreateIssue(context.Background(), safetyInput())
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, schemas.StatusOpen, rec.Status)
	assert.Equal(t, frozenNow, rec.CreatedAt)
	assert.Greater(t, rec.Result.Score, 0.0)
	require.NotNil(t, rec.Input.ReportedAt)
	assert.Equal(t, frozenNow, *rec.Input.ReportedAt, "missing report time is stamped from the service clock")

	// The write must land before the event.
	assert.Equal(t, []string{"save", "publish:issue.created"}, f.seq.all())

	events := f.broadcaster.published()
	require.Len(t, events, 1)
	assert.Equal(t, rec.ID, events[0].IssueID)
	assert.Equal(t, "SCI-04", events[0].BuildingID)
	assert.Equal(t, rec.Result.Priority, events[0].Priority)
	assert.Equal(t, rec.Result.Score, events[0].Score)

	stored, err := f.store.GetIssue(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Result, stored.Result)
}

func TestCreateIssue_KeepsExplicitReportTime(t *testing.T) {
	f := newFixture(t)

	reportedAt := frozenNow.Add(-48 * time.Hour)
	input := safetyInput()
	input.ReportedAt = &reportedAt

	rec, err := f.service.CreateIssue(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, reportedAt, *rec.Input.ReportedAt)
}

func TestCreateIssue_PersistFailureSuppressesBroadcast(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.New("document store unavailable")

	_, err := f.service.CreateIssue(context.Background(), safetyInput())
	require.Error(t, err)

	assert.Equal(t, []string{"save-failed"}, f.seq.all(), "no event for an unpersisted write")
	assert.Empty(t, f.broadcaster.published())
}

func TestCreateIssue_BroadcastFailureDoesNotInvalidateWrite(t *testing.T) {
	f := newFixture(t)
	f.broadcaster.publishErr = errors.New("fan-out down")

	rec, err := f.service.CreateIssue(context.Background(), safetyInput())
	require.NoError(t, err, "the persisted write stands even when nobody hears about it")

	_, err = f.store.GetIssue(context.Background(), rec.ID)
	assert.NoError(t, err)
}

func TestCreateIssue_RejectsMissingCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateIssue(context.Background(), schemas.PriorityInput{})
	require.Error(t, err)

	var verr *schemas.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, f.seq.all(), "invalid input never reaches the store")
}

func TestUpdateIssue_ScoringPatchRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.service.CreateIssue(ctx, safetyInput())
	require.NoError(t, err)

	updated, err := f.service.UpdateIssue(ctx, rec.ID, Patch{Severity: intPtr(10)})
	require.NoError(t, err)

	assert.Equal(t, 10, *updated.Input.Severity)
	assert.Greater(t, updated.Result.Score, rec.Result.Score, "raising severity raises the score")
	assert.Equal(t, []string{
		"save", "publish:issue.created",
		"save", "publish:issue.updated",
	}, f.seq.all())
}

func TestUpdateIssue_StatusOnlyPatchKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.service.CreateIssue(ctx, safetyInput())
	require.NoError(t, err)

	updated, err := f.service.UpdateIssue(ctx, rec.ID, Patch{Status: statusPtr(schemas.StatusInProgress)})
	require.NoError(t, err)

	assert.Equal(t, schemas.StatusInProgress, updated.Status)
	assert.Equal(t, rec.Result, updated.Result, "non-scoring patches never touch the snapshot")
}

func TestUpdateIssue_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.service.CreateIssue(ctx, safetyInput())
	require.NoError(t, err)

	_, err = f.service.UpdateIssue(ctx, rec.ID, Patch{Status: statusPtr(schemas.IssueStatus("bogus"))})
	var verr *schemas.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}

func TestUpdateIssue_ClearsDefaultedMarkOnExplicitValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No severity supplied: the normalizer defaults it, which dents
	// confidence.
	input := safetyInput()
	input.Severity = nil
	rec, err := f.service.CreateIssue(ctx, input)
	require.NoError(t, err)
	require.True(t, rec.Input.Defaulted.Has(schemas.FieldSeverity))

	updated, err := f.service.UpdateIssue(ctx, rec.ID, Patch{Severity: intPtr(9)})
	require.NoError(t, err)
	assert.False(t, updated.Input.Defaulted.Has(schemas.FieldSeverity))
	assert.Greater(t, updated.Result.Confidence, rec.Result.Confidence,
		"explicit evidence lifts confidence")
}

func TestUpdateIssue_MissingIssue(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.UpdateIssue(context.Background(), "nope", Patch{Severity: intPtr(5)})
	assert.ErrorIs(t, err, schemas.ErrIssueNotFound)
}

func TestRescore_ReplacesSnapshotAndBroadcasts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.service.CreateIssue(ctx, safetyInput())
	require.NoError(t, err)

	rescored, err := f.service.Rescore(ctx, rec.ID)
	require.NoError(t, err)

	// Same input, same config: the recomputed snapshot is bit-identical.
	assert.Equal(t, rec.Result, rescored.Result)
	assert.Equal(t, []string{
		"save", "publish:issue.created",
		"save", "publish:issue.rescored",
	}, f.seq.all())
}

func TestBuildingReport_AggregatesStoredHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		input := safetyInput()
		reportedAt := frozenNow.Add(-time.Duration(i*5*24) * time.Hour)
		input.ReportedAt = &reportedAt
		_, err := f.service.CreateIssue(ctx, input)
		require.NoError(t, err)
	}

	report, err := f.service.BuildingReport(ctx, "SCI-04", frozenNow)
	require.NoError(t, err)

	assert.Equal(t, "SCI-04", report.Summary.BuildingID)
	assert.Equal(t, 4, report.Summary.SampleSize)
	assert.Equal(t, frozenNow.Format(time.RFC3339), report.Summary.AsOf)
}

func TestBuildingReport_UnknownBuildingIsEmptyNotError(t *testing.T) {
	f := newFixture(t)

	report, err := f.service.BuildingReport(context.Background(), "GYM-09", frozenNow)
	require.NoError(t, err)
	assert.Zero(t, report.Summary.SampleSize)
	assert.Empty(t, report.Alerts)
}
