// Package metrics turns a window of mood entries plus optional fitness data
// into a stress assessment. Everything here is pure computation; callers own
// the slicing and persistence.
package metrics

import (
	"math"

	"github.com/mossline/wellspring-server/internal/models"
)

const (
	// EvaluateWindow is the number of recent entries Evaluate considers.
	EvaluateWindow = 12

	spikeWindow = 3
	dropWindow  = 4
)

// Detection is the result of the quick stress trigger check.
type Detection struct {
	Triggered bool   `json:"triggered"`
	Reason    string `json:"reason,omitempty"`
}

// Evaluate classifies stress severity over the last EvaluateWindow entries and
// the latest fitness snapshot. The ladder is checked high to low and the first
// match wins; it is not cumulative.
func Evaluate(entries []models.MoodEntry, fitness models.FitnessSnapshot) models.StressAssessment {
	recent := lastN(entries, EvaluateWindow)
	avgStress := averageStress(recent)
	avgMood := averageMood(recent)

	restingHR := fitness.RestingHeartRate
	if math.IsNaN(restingHR) {
		restingHR = 0
	}

	severity := models.SeverityNone
	switch {
	case avgStress >= 4 || restingHR >= 95:
		severity = models.SeverityVeryHigh
	case avgStress >= 3.5 || restingHR >= 90:
		severity = models.SeverityHigh
	case avgStress >= 2.5:
		severity = models.SeverityModerate
	case avgStress >= 1.5:
		severity = models.SeverityLow
	}

	// Reasons use their own thresholds, which overlap but do not line up with
	// the severity ladder. That mismatch is inherited behavior; keep it.
	var reasons []string
	if avgStress >= 3.5 {
		reasons = append(reasons, "elevated stress levels reported")
	}
	if restingHR >= 90 {
		reasons = append(reasons, "high resting heart rate")
	}
	if fitness.HeartPoints == 0 {
		reasons = append(reasons, "no heart points detected recently")
	}

	return models.StressAssessment{
		Severity:  severity,
		AvgStress: avgStress,
		AvgMood:   avgMood,
		Reasons:   reasons,
	}
}

// DetectStress runs the short-window trigger rules in order; the first match
// wins. Rule 1 looks for stress spikes in the last 3 entries. Rule 2 looks for
// a mood swing across the last 4 and is skipped entirely when fewer than 4
// entries exist.
func DetectStress(entries []models.MoodEntry) Detection {
	recent := lastN(entries, spikeWindow)
	spikes := 0
	for _, e := range recent {
		if e.Stress >= 4 {
			spikes++
		}
	}
	if spikes >= 2 {
		return Detection{Triggered: true, Reason: "recent stress spikes"}
	}

	if len(entries) >= dropWindow {
		window := lastN(entries, dropWindow)
		minMood, maxMood := window[0].Mood, window[0].Mood
		for _, e := range window[1:] {
			if e.Mood < minMood {
				minMood = e.Mood
			}
			if e.Mood > maxMood {
				maxMood = e.Mood
			}
		}
		if maxMood-minMood >= 2 {
			return Detection{Triggered: true, Reason: "mood drop detected"}
		}
	}

	return Detection{}
}

// AverageStress is the mean stress over the given entries, 0 when empty.
func AverageStress(entries []models.MoodEntry) float64 {
	return averageStress(entries)
}

// AverageMood is the mean mood over the given entries, 0 when empty.
func AverageMood(entries []models.MoodEntry) float64 {
	return averageMood(entries)
}

func averageStress(entries []models.MoodEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.Stress
	}
	return float64(sum) / float64(len(entries))
}

func averageMood(entries []models.MoodEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.Mood
	}
	return float64(sum) / float64(len(entries))
}

func lastN(entries []models.MoodEntry, n int) []models.MoodEntry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
