package behavior

import (
	"context"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/umbralith/userpulse/plugin/behavior/trace"
)

// Tracker implements Service with an in-memory model: the ordered sequence
// of all interactions, the user profile map, and the off-track counters.
// One instance is constructed per process and injected into callers.
//
// All public methods are safe for concurrent use. A single RWMutex guards
// the read-modify-write sequence so that a profile's interaction count
// always equals the records observed for that user.
type Tracker struct {
	mu           sync.RWMutex
	interactions []*Interaction
	profiles     map[string]*UserProfile
	offTrack     map[string]int

	mirror *Mirrorer
	tracer trace.Tracer
	now    func() time.Time

	// wg tracks in-flight mirror writes so Close can drain them.
	wg sync.WaitGroup
}

// NewTracker creates a tracker. mirror may be nil to disable row-store
// mirroring; tracer may be nil for no instrumentation.
func NewTracker(mirror *Mirrorer, tracer trace.Tracer) *Tracker {
	if tracer == nil {
		tracer = trace.NewNopTracer()
	}
	return &Tracker{
		profiles: make(map[string]*UserProfile),
		offTrack: make(map[string]int),
		mirror:   mirror,
		tracer:   tracer,
		now:      time.Now,
	}
}

// Record logs one user-agent exchange. The interaction is appended to the
// sequence, the user's profile is updated and off-track detection runs
// synchronously. Mirroring happens in the background and its failures are
// absorbed; Record itself never fails.
func (t *Tracker) Record(ctx context.Context, rec RecordInteraction) {
	ctx, span := t.tracer.StartSpan(ctx, "user_behavior.record_interaction")
	defer t.tracer.EndSpan(span)
	span.SetAttribute("user_id", rec.UserID)
	span.SetAttribute("agent", rec.AgentName)
	span.SetAttribute("interaction_type", string(rec.Kind))

	interaction := &Interaction{
		UID:               shortuuid.New(),
		UserID:            rec.UserID,
		Kind:              rec.Kind,
		AgentName:         rec.AgentName,
		InputText:         rec.InputText,
		OutputText:        rec.OutputText,
		CreateTime:        t.now().UTC(),
		SatisfactionScore: rec.SatisfactionScore,
		Feedback:          rec.Feedback,
		Metadata:          rec.Metadata,
	}

	t.mu.Lock()
	t.interactions = append(t.interactions, interaction)

	profile := t.profileLocked(rec.UserID)
	profile.InteractionCount++
	profile.LastInteraction = interaction.CreateTime
	if interaction.SatisfactionScore != nil {
		profile.SatisfactionHistory = append(profile.SatisfactionHistory, *interaction.SatisfactionScore)
	}

	t.detectOffTrackLocked(ctx, interaction)
	t.mu.Unlock()

	t.mirrorInteractionAsync(interaction)
}

// GetProfile returns a snapshot of the user's profile. Unseen users get an
// empty profile, created once and kept; repeated calls do not duplicate map
// entries.
func (t *Tracker) GetProfile(_ context.Context, userID string) UserProfile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.profileLocked(userID).snapshot()
}

// Close waits for in-flight mirror writes to finish.
func (t *Tracker) Close() {
	t.wg.Wait()
}

// profileLocked returns the user's profile, creating a default one on first
// access. Caller must hold the write lock.
func (t *Tracker) profileLocked(userID string) *UserProfile {
	profile, ok := t.profiles[userID]
	if !ok {
		profile = &UserProfile{
			UserID:         userID,
			PreferredStyle: StyleBalanced,
			Preferences:    make(map[string]string),
		}
		t.profiles[userID] = profile
	}
	return profile
}

// snapshot returns a copy safe to hand outside the lock.
func (p *UserProfile) snapshot() UserProfile {
	out := *p
	out.SatisfactionHistory = append([]float64(nil), p.SatisfactionHistory...)
	out.Preferences = make(map[string]string, len(p.Preferences))
	for k, v := range p.Preferences {
		out.Preferences[k] = v
	}
	return out
}

func (t *Tracker) mirrorInteractionAsync(interaction *Interaction) {
	if t.mirror == nil {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		// The caller's context may end with its request; mirroring is
		// bounded by the mirrorer's own timeout instead.
		t.mirror.MirrorInteraction(context.Background(), interaction)
	}()
}

func (t *Tracker) mirrorLearningAsync(userID string, feedback string, score float64, signals FeedbackSignals) {
	if t.mirror == nil {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.mirror.MirrorLearningEvent(context.Background(), userID, feedback, score, signals)
	}()
}

// Ensure Tracker implements Service.
var _ Service = (*Tracker)(nil)
