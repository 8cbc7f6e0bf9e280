package scheduler

import (
	"context"
	"time"

	"github.com/mossline/wellspring-server/internal/metrics"
	"github.com/mossline/wellspring-server/internal/models"
	"github.com/mossline/wellspring-server/internal/store"
)

// StressSweep re-evaluates every user's recent entries and raises alerts for
// the ones trending into high stress. It works from stored mood data only;
// fitness metrics are per-request and not available here.
type StressSweep struct {
	store  *store.Store
	alerts Publisher
}

// NewStressSweep wires a sweep over the given store.
func NewStressSweep(st *store.Store, alerts Publisher) *StressSweep {
	return &StressSweep{store: st, alerts: alerts}
}

type userAlert struct {
	userID     string
	detection  metrics.Detection
	assessment models.StressAssessment
}

// Run evaluates all users once and returns how many were alerted. Evaluation
// happens under a read view; the document is rewritten only when at least one
// user actually alerted.
func (s *StressSweep) Run(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var pending []userAlert

	err := s.store.View(func(doc *store.Document) error {
		for _, userID := range doc.UserIDs() {
			entries := doc.MoodEntries[userID]
			if len(entries) == 0 {
				continue
			}

			detection := metrics.DetectStress(entries)
			assessment := metrics.Evaluate(entries, models.FitnessSnapshot{})
			assessment.CheckedAt = now

			if !detection.Triggered && assessment.Severity.Rank() < models.SeverityHigh.Rank() {
				continue
			}
			pending = append(pending, userAlert{userID: userID, detection: detection, assessment: assessment})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	err = s.store.Update(func(doc *store.Document) error {
		for _, p := range pending {
			cached := p.assessment
			doc.Dashboard(p.userID).LastStressAlert = &cached
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.alerts != nil {
		for _, p := range pending {
			s.alerts.Publish("stress.alert", p.userID, map[string]interface{}{
				"severity":  p.assessment.Severity,
				"avgStress": p.assessment.AvgStress,
				"triggered": p.detection.Triggered,
				"reason":    p.detection.Reason,
			})
		}
	}
	return len(pending), nil
}
