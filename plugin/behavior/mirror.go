package behavior

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/semaphore"

	"github.com/umbralith/userpulse/store"
)

const (
	defaultMirrorTimeout     = 3 * time.Second
	defaultMirrorConcurrency = 4
)

// MirrorOutcome classifies one mirror attempt.
type MirrorOutcome int

const (
	// MirrorStored means the row was written.
	MirrorStored MirrorOutcome = iota
	// MirrorSkipped means the write was not attempted: mirroring is
	// disabled or the table is known to be absent.
	MirrorSkipped
	// MirrorFailed means the probe or the write failed; the error was
	// logged and absorbed, and the next attempt may succeed.
	MirrorFailed
)

func (o MirrorOutcome) String() string {
	switch o {
	case MirrorStored:
		return "stored"
	case MirrorSkipped:
		return "skipped"
	case MirrorFailed:
		return "failed"
	}
	return "unknown"
}

// capability is the probed availability of one mirror table.
type capability int

const (
	capabilityUnknown capability = iota
	capabilityAvailable
	capabilityUnavailable
)

// MirrorStore is the slice of the row store the mirrorer writes through.
// *store.Store satisfies it; tests substitute lightweight fakes.
type MirrorStore interface {
	TableExists(ctx context.Context, tableName string) (bool, error)
	CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error)
	CreateLearningEvent(ctx context.Context, create *store.LearningEvent) (*store.LearningEvent, error)
}

// MirrorConfig tunes the mirrorer.
type MirrorConfig struct {
	// Timeout bounds each write, probe included. Default 3s.
	Timeout time.Duration
	// MaxConcurrent bounds parallel mirror writes. Default 4.
	MaxConcurrent int64
}

// Mirrorer copies interactions and learning events to the row store on a
// best-effort basis. Each table's availability is probed on first use and
// cached for the process lifetime: a missing table downgrades every later
// write to a silent skip, announced once. Write failures are logged and
// absorbed, never propagated.
type Mirrorer struct {
	store   MirrorStore
	timeout time.Duration
	sem     *semaphore.Weighted

	mu   sync.Mutex
	caps map[string]capability
}

// NewMirrorer creates a mirrorer over s. A nil store produces a mirrorer
// that skips every write.
func NewMirrorer(s MirrorStore, cfg MirrorConfig) *Mirrorer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultMirrorTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMirrorConcurrency
	}
	return &Mirrorer{
		store:   s,
		timeout: cfg.Timeout,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		caps:    make(map[string]capability),
	}
}

// MirrorInteraction writes one interaction row.
func (m *Mirrorer) MirrorInteraction(ctx context.Context, interaction *Interaction) MirrorOutcome {
	if m == nil || m.store == nil {
		return MirrorSkipped
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		slog.Warn("mirror write not admitted", "table", store.TableInteraction, "error", err)
		return MirrorFailed
	}
	defer m.sem.Release(1)

	switch m.capabilityFor(ctx, store.TableInteraction) {
	case capabilityUnavailable:
		return MirrorSkipped
	case capabilityUnknown:
		return MirrorFailed
	}

	metadata := "{}"
	if len(interaction.Metadata) > 0 {
		if raw, err := json.Marshal(interaction.Metadata); err == nil {
			metadata = string(raw)
		} else {
			slog.Warn("failed to encode interaction metadata", "uid", interaction.UID, "error", err)
		}
	}

	_, err := m.store.CreateInteraction(ctx, &store.Interaction{
		UID:               interaction.UID,
		UserID:            interaction.UserID,
		Kind:              string(interaction.Kind),
		AgentName:         interaction.AgentName,
		InputText:         interaction.InputText,
		OutputText:        interaction.OutputText,
		SatisfactionScore: interaction.SatisfactionScore,
		Feedback:          interaction.Feedback,
		Metadata:          metadata,
		CreatedTs:         interaction.CreateTime.Unix(),
	})
	if err != nil {
		slog.Warn("failed to mirror interaction", "uid", interaction.UID, "user_id", interaction.UserID, "error", err)
		return MirrorFailed
	}
	return MirrorStored
}

// MirrorLearningEvent writes one learning event row.
func (m *Mirrorer) MirrorLearningEvent(ctx context.Context, userID string, feedback string, score float64, signals FeedbackSignals) MirrorOutcome {
	if m == nil || m.store == nil {
		return MirrorSkipped
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		slog.Warn("mirror write not admitted", "table", store.TableLearningEvent, "error", err)
		return MirrorFailed
	}
	defer m.sem.Release(1)

	switch m.capabilityFor(ctx, store.TableLearningEvent) {
	case capabilityUnavailable:
		return MirrorSkipped
	case capabilityUnknown:
		return MirrorFailed
	}

	rawSignals, err := json.Marshal(signals)
	if err != nil {
		slog.Warn("failed to encode feedback signals", "user_id", userID, "error", err)
		rawSignals = []byte("{}")
	}

	_, err = m.store.CreateLearningEvent(ctx, &store.LearningEvent{
		UID:                shortuuid.New(),
		UserID:             userID,
		Feedback:           feedback,
		SatisfactionScore:  score,
		ImprovementSignals: string(rawSignals),
		CreatedTs:          time.Now().Unix(),
	})
	if err != nil {
		slog.Warn("failed to mirror learning event", "user_id", userID, "error", err)
		return MirrorFailed
	}
	return MirrorStored
}

// capabilityFor resolves the cached capability of a table, probing on
// first use. A probe error leaves the state unknown so the next write
// retries; a definitive "missing" answer is cached and announced once.
func (m *Mirrorer) capabilityFor(ctx context.Context, tableName string) capability {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, ok := m.caps[tableName]; ok && state != capabilityUnknown {
		return state
	}

	exists, err := m.store.TableExists(ctx, tableName)
	if err != nil {
		slog.Warn("mirror capability probe failed", "table", tableName, "error", err)
		return capabilityUnknown
	}
	if !exists {
		m.caps[tableName] = capabilityUnavailable
		slog.Info("mirror table not found, keeping records in memory only", "table", tableName)
		return capabilityUnavailable
	}
	m.caps[tableName] = capabilityAvailable
	return capabilityAvailable
}
