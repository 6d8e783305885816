package behavior

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/umbralith/userpulse/store"
)

// fakeMirrorStore implements MirrorStore in memory and counts probes.
type fakeMirrorStore struct {
	mu            sync.Mutex
	probeCalls    map[string]int
	missingTables map[string]bool
	probeErr      error
	createErr     error
	interactions  []*store.Interaction
	learnings     []*store.LearningEvent
}

func newFakeMirrorStore() *fakeMirrorStore {
	return &fakeMirrorStore{
		probeCalls:    make(map[string]int),
		missingTables: make(map[string]bool),
	}
}

func (f *fakeMirrorStore) TableExists(_ context.Context, tableName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls[tableName]++
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return !f.missingTables[tableName], nil
}

func (f *fakeMirrorStore) CreateInteraction(_ context.Context, create *store.Interaction) (*store.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.interactions = append(f.interactions, create)
	return create, nil
}

func (f *fakeMirrorStore) CreateLearningEvent(_ context.Context, create *store.LearningEvent) (*store.LearningEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.learnings = append(f.learnings, create)
	return create, nil
}

func (f *fakeMirrorStore) probes(tableName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeCalls[tableName]
}

func testInteraction() *Interaction {
	return &Interaction{
		UID:               "int-test",
		UserID:            "user-1",
		Kind:              KindMessage,
		AgentName:         "support-bot",
		InputText:         "where are my invoices?",
		OutputText:        "under Billing",
		CreateTime:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		SatisfactionScore: ptr(4.5),
		Metadata:          map[string]any{"channel": "web"},
	}
}

// TestMirrorInteractionStored tests the happy path row mapping.
func TestMirrorInteractionStored(t *testing.T) {
	ctx := context.Background()
	fake := newFakeMirrorStore()
	mirror := NewMirrorer(fake, MirrorConfig{})

	outcome := mirror.MirrorInteraction(ctx, testInteraction())
	require.Equal(t, MirrorStored, outcome)
	require.Len(t, fake.interactions, 1)

	row := fake.interactions[0]
	require.Equal(t, "int-test", row.UID)
	require.Equal(t, "user-1", row.UserID)
	require.Equal(t, "message", row.Kind)
	require.Equal(t, "support-bot", row.AgentName)
	require.NotNil(t, row.SatisfactionScore)
	require.Equal(t, 4.5, *row.SatisfactionScore)
	require.Nil(t, row.Feedback)
	require.JSONEq(t, `{"channel": "web"}`, row.Metadata)
	require.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Unix(), row.CreatedTs)
}

// TestMirrorProbeOnce tests that table availability is probed a single time.
func TestMirrorProbeOnce(t *testing.T) {
	ctx := context.Background()
	fake := newFakeMirrorStore()
	mirror := NewMirrorer(fake, MirrorConfig{})

	for i := 0; i < 5; i++ {
		require.Equal(t, MirrorStored, mirror.MirrorInteraction(ctx, testInteraction()))
	}
	require.Equal(t, 1, fake.probes(store.TableInteraction))
}

// TestMirrorMissingTableSkips tests that a definitively absent table
// downgrades every write to a skip without re-probing.
func TestMirrorMissingTableSkips(t *testing.T) {
	ctx := context.Background()
	fake := newFakeMirrorStore()
	fake.missingTables[store.TableInteraction] = true
	mirror := NewMirrorer(fake, MirrorConfig{})

	for i := 0; i < 3; i++ {
		require.Equal(t, MirrorSkipped, mirror.MirrorInteraction(ctx, testInteraction()))
	}
	require.Equal(t, 1, fake.probes(store.TableInteraction))
	require.Empty(t, fake.interactions)

	// The learning table is probed independently.
	require.Equal(t, MirrorStored, mirror.MirrorLearningEvent(ctx, "user-1", "too long", 2, FeedbackSignals{TooLong: true}))
	require.Equal(t, 1, fake.probes(store.TableLearningEvent))
}

// TestMirrorProbeErrorRetries tests that a failed probe leaves the state
// unknown so the next write probes again.
func TestMirrorProbeErrorRetries(t *testing.T) {
	ctx := context.Background()
	fake := newFakeMirrorStore()
	fake.probeErr = errors.New("connection refused")
	mirror := NewMirrorer(fake, MirrorConfig{})

	require.Equal(t, MirrorFailed, mirror.MirrorInteraction(ctx, testInteraction()))
	require.Equal(t, MirrorFailed, mirror.MirrorInteraction(ctx, testInteraction()))
	require.Equal(t, 2, fake.probes(store.TableInteraction))

	// Once the store recovers the probe result is cached for good.
	fake.mu.Lock()
	fake.probeErr = nil
	fake.mu.Unlock()

	require.Equal(t, MirrorStored, mirror.MirrorInteraction(ctx, testInteraction()))
	require.Equal(t, MirrorStored, mirror.MirrorInteraction(ctx, testInteraction()))
	require.Equal(t, 3, fake.probes(store.TableInteraction))
}

// TestMirrorWriteFailure tests that write errors are absorbed per attempt.
func TestMirrorWriteFailure(t *testing.T) {
	ctx := context.Background()
	fake := newFakeMirrorStore()
	fake.createErr = errors.New("disk full")
	mirror := NewMirrorer(fake, MirrorConfig{})

	require.Equal(t, MirrorFailed, mirror.MirrorInteraction(ctx, testInteraction()))

	fake.mu.Lock()
	fake.createErr = nil
	fake.mu.Unlock()

	require.Equal(t, MirrorStored, mirror.MirrorInteraction(ctx, testInteraction()))
}

// TestMirrorNilStore tests that a store-less mirrorer skips everything.
func TestMirrorNilStore(t *testing.T) {
	ctx := context.Background()
	mirror := NewMirrorer(nil, MirrorConfig{})

	require.Equal(t, MirrorSkipped, mirror.MirrorInteraction(ctx, testInteraction()))
	require.Equal(t, MirrorSkipped, mirror.MirrorLearningEvent(ctx, "user-1", "meh", 2, FeedbackSignals{}))
}

// TestMirrorLearningEventRow tests the learning event row mapping.
func TestMirrorLearningEventRow(t *testing.T) {
	ctx := context.Background()
	fake := newFakeMirrorStore()
	mirror := NewMirrorer(fake, MirrorConfig{})

	outcome := mirror.MirrorLearningEvent(ctx, "user-1", "too long and wrong", 2, FeedbackSignals{TooLong: true, Inaccurate: true})
	require.Equal(t, MirrorStored, outcome)
	require.Len(t, fake.learnings, 1)

	row := fake.learnings[0]
	require.NotEmpty(t, row.UID)
	require.Equal(t, "user-1", row.UserID)
	require.Equal(t, "too long and wrong", row.Feedback)
	require.Equal(t, 2.0, row.SatisfactionScore)
	require.JSONEq(t, `{"too_long": true, "too_short": false, "not_helpful": false, "inaccurate": true, "tone_issue": false}`, row.ImprovementSignals)
}

// TestMirrorOutcomeString tests the outcome labels.
func TestMirrorOutcomeString(t *testing.T) {
	require.Equal(t, "stored", MirrorStored.String())
	require.Equal(t, "skipped", MirrorSkipped.String())
	require.Equal(t, "failed", MirrorFailed.String())
}

// TestTrackerMirrorsInBackground tests the fire-and-forget path end to end.
func TestTrackerMirrorsInBackground(t *testing.T) {
	ctx := context.Background()
	fake := newFakeMirrorStore()
	tracker := NewTracker(NewMirrorer(fake, MirrorConfig{}), nil)

	tracker.Record(ctx, RecordInteraction{
		UserID:    "user-1",
		Kind:      KindMessage,
		AgentName: "support-bot",
		InputText: "hello",
	})
	tracker.LearnFromFeedback(ctx, "user-1", "too long", 2)
	tracker.Close()

	require.Len(t, fake.interactions, 1)
	require.Len(t, fake.learnings, 1)
	require.Equal(t, "user-1", fake.interactions[0].UserID)
}

// TestTrackerMirrorFailureInvisible tests that a broken mirror never
// surfaces to callers or corrupts the in-memory model.
func TestTrackerMirrorFailureInvisible(t *testing.T) {
	ctx := context.Background()
	fake := newFakeMirrorStore()
	fake.createErr = errors.New("disk full")
	tracker := NewTracker(NewMirrorer(fake, MirrorConfig{}), nil)

	tracker.Record(ctx, RecordInteraction{UserID: "user-1", Kind: KindMessage, SatisfactionScore: ptr(4.0)})
	tracker.Close()

	profile := tracker.GetProfile(ctx, "user-1")
	require.Equal(t, 1, profile.InteractionCount)
	require.Equal(t, []float64{4.0}, profile.SatisfactionHistory)
	require.Empty(t, fake.interactions)
}
