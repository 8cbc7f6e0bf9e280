// Package challenge holds the recovery-challenge catalog, the deterministic
// selector, and the lifecycle orchestrator. The selector is the guaranteed
// fallback behind the AI layer: callers try the LLM first and come here when
// it is unavailable or returns something unusable.
package challenge

import (
	"github.com/google/uuid"

	"github.com/mossline/wellspring-server/internal/metrics"
	"github.com/mossline/wellspring-server/internal/models"
)

const (
	// HistoryWindow is how many recent entries selection considers.
	HistoryWindow = 30

	recentTrendWindow = 5
	olderTrendStart   = 15
	olderTrendEnd     = 10

	lowStepsThreshold = 3000
	lowSleepThreshold = 6.0
)

// Context carries the activity signals the selector uses beyond mood history.
type Context struct {
	StepsToday int
	SleepHours float64
}

// Trend describes the direction of recent stress relative to two weeks ago.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Select builds an unpersisted challenge draft from the user's recent mood
// history and activity context. An empty history short-circuits to the
// balanced default without computing any statistics.
func Select(history []models.MoodEntry, fctx Context) *models.ChallengeInstance {
	if len(history) == 0 {
		draft := Instantiate(TemplateFor(PatternDefault), models.GeneratedByDefault)
		draft.Pattern = string(PatternDefault)
		return draft
	}

	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	avgStress := metrics.AverageStress(history)
	avgMood := metrics.AverageMood(history)
	trend := StressTrend(history)
	pattern := Classify(avgStress, avgMood, trend, fctx)

	draft := Instantiate(TemplateFor(pattern), models.GeneratedByDataDriven)
	draft.Pattern = string(pattern)
	draft.AvgStress = avgStress
	draft.AvgMood = avgMood
	return draft
}

// Classify maps the derived statistics to a pattern. Checks run in priority
// order; the combined high-stress-low-mood case wins over either alone.
func Classify(avgStress, avgMood float64, trend Trend, fctx Context) Pattern {
	switch {
	case avgStress >= 4 && avgMood <= 2:
		return PatternHighStressLowMood
	case avgStress >= 4:
		return PatternHighStress
	case avgMood <= 2:
		return PatternLowMood
	case trend == TrendIncreasing:
		return PatternIncreasingStress
	// Zero means the metric was not supplied; absence alone is not low activity.
	case (fctx.StepsToday > 0 && fctx.StepsToday < lowStepsThreshold) ||
		(fctx.SleepHours > 0 && fctx.SleepHours < lowSleepThreshold):
		return PatternLowActivityOrSleep
	default:
		return PatternDefault
	}
}

// StressTrend compares mean stress of the last 5 entries against the window
// 15..10 entries back. Histories shorter than 15 entries have no older window
// to compare against and report stable rather than dividing by zero.
func StressTrend(history []models.MoodEntry) Trend {
	if len(history) < olderTrendStart {
		return TrendStable
	}

	recent := history[len(history)-recentTrendWindow:]
	older := history[len(history)-olderTrendStart : len(history)-olderTrendEnd]

	if metrics.AverageStress(recent) > metrics.AverageStress(older) {
		return TrendIncreasing
	}
	return TrendDecreasing
}

// Instantiate copies a template into a fresh draft instance with every day
// and task marked incomplete. Tasks get stable synthetic IDs here so progress
// updates survive display-text changes.
func Instantiate(tpl Template, generatedBy string) *models.ChallengeInstance {
	days := make([]models.DayProgress, 0, len(tpl.Days))
	for _, day := range tpl.Days {
		tasks := make([]models.TaskProgress, 0, len(day.Tasks))
		for _, t := range day.Tasks {
			tasks = append(tasks, models.TaskProgress{
				ID:        uuid.NewString(),
				Name:      t.Name,
				Duration:  t.Duration,
				Technique: t.Technique,
				Steps:     t.Steps,
				Impact:    t.Impact,
			})
		}
		days = append(days, models.DayProgress{
			Day:       day.Day,
			Theme:     day.Theme,
			Objective: day.Objective,
			Tasks:     tasks,
		})
	}

	return &models.ChallengeInstance{
		Name:        tpl.Name,
		Difficulty:  tpl.Difficulty,
		Description: tpl.Description,
		Days:        days,
		GeneratedBy: generatedBy,
	}
}
