package behavior

import (
	"context"
	"errors"
)

// ErrNoData is returned by ReliabilityMetrics when nothing has been
// recorded yet. Callers must distinguish it from an all-zero report.
var ErrNoData = errors.New("no interactions recorded")

// ReliabilityMetrics aggregates store-wide satisfaction and off-track
// metrics on demand.
func (t *Tracker) ReliabilityMetrics(ctx context.Context) (*ReliabilityReport, error) {
	_, span := t.tracer.StartSpan(ctx, "reliability_metrics")
	defer t.tracer.EndSpan(span)

	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.interactions) == 0 {
		return nil, ErrNoData
	}

	report := &ReliabilityReport{
		TotalInteractions: len(t.interactions),
		UniqueUsers:       len(t.profiles),
		AgentPerformance:  make(map[string]AgentPerformance),
		GeneratedAt:       t.now().UTC(),
	}

	type agentAggregate struct {
		count       int
		scoreSum    float64
		scoredCount int
	}

	scoreSum := 0.0
	scoredCount := 0
	agents := make(map[string]*agentAggregate)
	for _, interaction := range t.interactions {
		agg := agents[interaction.AgentName]
		if agg == nil {
			agg = &agentAggregate{}
			agents[interaction.AgentName] = agg
		}
		agg.count++

		if interaction.SatisfactionScore == nil {
			continue
		}
		score := *interaction.SatisfactionScore
		scoreSum += score
		scoredCount++
		agg.scoreSum += score
		agg.scoredCount++
	}

	// Unscored interactions are excluded from the mean entirely.
	if scoredCount > 0 {
		report.AverageSatisfaction = scoreSum / float64(scoredCount)
	}

	offTrackUsers := 0
	for _, count := range t.offTrack {
		if count > 0 {
			offTrackUsers++
		}
	}
	if len(t.profiles) > 0 {
		report.OffTrackRate = float64(offTrackUsers) / float64(len(t.profiles))
	}

	for name, agg := range agents {
		performance := AgentPerformance{Count: agg.count}
		if agg.scoredCount > 0 {
			performance.AverageSatisfaction = agg.scoreSum / float64(agg.scoredCount)
		}
		report.AgentPerformance[name] = performance
	}

	return report, nil
}
