// Package coach is the AI augmentation layer. Every generation request tries
// the LLM first and degrades to the deterministic engine on any failure, so
// the service keeps working with no API key, a dead provider, or garbage
// output.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/mossline/wellspring-server/internal/apperr"
	"github.com/mossline/wellspring-server/internal/challenge"
	"github.com/mossline/wellspring-server/internal/metrics"
	"github.com/mossline/wellspring-server/internal/models"
)

// TextGenerator is the black-box prompt-to-text function the coach consumes.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Coach generates challenges, recommendations, chat replies and summaries.
type Coach struct {
	gen TextGenerator
}

// New creates a coach. gen may be unconfigured; everything then falls back.
func New(gen TextGenerator) *Coach {
	return &Coach{gen: gen}
}

// tryAIThenFallback attempts primary and falls back on any error, logging the
// reason. The deterministic path is the guarantee, not the exception path.
func tryAIThenFallback[T any](what string, primary func() (T, error), fallback func() T) T {
	result, err := primary()
	if err != nil {
		log.Printf("AI %s unavailable, using deterministic fallback: %v", what, err)
		return fallback()
	}
	return result
}

// aiChallenge is the JSON shape the LLM is asked for.
type aiChallenge struct {
	ChallengeName string `json:"challengeName"`
	Difficulty    string `json:"difficulty"`
	Description   string `json:"description"`
	Days          []struct {
		Day       int    `json:"day"`
		Theme     string `json:"theme"`
		Objective string `json:"objective"`
		Tasks     []struct {
			Name      string   `json:"name"`
			Duration  string   `json:"duration"`
			Technique string   `json:"technique"`
			Steps     []string `json:"steps"`
			Impact    string   `json:"impact"`
		} `json:"tasks"`
	} `json:"days"`
}

// GenerateChallenge returns an unpersisted challenge draft. The LLM is tried
// first; the data-driven selector is the fallback.
func (c *Coach) GenerateChallenge(ctx context.Context, history []models.MoodEntry, fctx challenge.Context) *models.ChallengeInstance {
	return tryAIThenFallback("challenge generation",
		func() (*models.ChallengeInstance, error) {
			return c.aiChallenge(ctx, history, fctx)
		},
		func() *models.ChallengeInstance {
			return challenge.Select(history, fctx)
		},
	)
}

func (c *Coach) aiChallenge(ctx context.Context, history []models.MoodEntry, fctx challenge.Context) (*models.ChallengeInstance, error) {
	if len(history) == 0 {
		// Nothing to personalize from; the default template is the right answer.
		return nil, apperr.Upstreamf("no history to personalize")
	}

	avgStress := metrics.AverageStress(history)
	avgMood := metrics.AverageMood(history)
	pattern := challenge.Classify(avgStress, avgMood, challenge.StressTrend(history), fctx)

	prompt := fmt.Sprintf(challengePrompt, avgStress, avgMood, pattern, recentFeelings(history, 5))
	response, err := c.gen.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed aiChallenge
	if err := unmarshalLenient(response, &parsed); err != nil {
		return nil, fmt.Errorf("%w: challenge: %v", apperr.ErrMalformedUpstream, err)
	}
	if parsed.ChallengeName == "" || len(parsed.Days) != 3 {
		return nil, fmt.Errorf("%w: challenge has %d days", apperr.ErrMalformedUpstream, len(parsed.Days))
	}
	for _, day := range parsed.Days {
		if len(day.Tasks) == 0 {
			return nil, fmt.Errorf("%w: day %d has no tasks", apperr.ErrMalformedUpstream, day.Day)
		}
	}

	tpl := challenge.Template{
		Name:        parsed.ChallengeName,
		Difficulty:  parsed.Difficulty,
		Description: parsed.Description,
	}
	for _, day := range parsed.Days {
		plan := challenge.DayPlan{Day: day.Day, Theme: day.Theme, Objective: day.Objective}
		for _, task := range day.Tasks {
			plan.Tasks = append(plan.Tasks, challenge.Task{
				Name:      task.Name,
				Duration:  task.Duration,
				Technique: task.Technique,
				Steps:     task.Steps,
				Impact:    task.Impact,
			})
		}
		tpl.Days = append(tpl.Days, plan)
	}

	draft := challenge.Instantiate(tpl, models.GeneratedByAI)
	draft.Pattern = string(pattern)
	draft.AvgStress = avgStress
	draft.AvgMood = avgMood
	return draft, nil
}

type aiRecommendation struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Recommendations returns suggestions for the current assessment, AI first
// with a static per-severity fallback.
func (c *Coach) Recommendations(ctx context.Context, assessment models.StressAssessment) []models.Recommendation {
	return tryAIThenFallback("recommendations",
		func() ([]models.Recommendation, error) {
			prompt := fmt.Sprintf(recommendationsPrompt, assessment.Severity, assessment.AvgStress, assessment.AvgMood)
			response, err := c.gen.Complete(ctx, prompt)
			if err != nil {
				return nil, err
			}

			var parsed []aiRecommendation
			if err := unmarshalLenient(response, &parsed); err != nil {
				return nil, fmt.Errorf("%w: recommendations: %v", apperr.ErrMalformedUpstream, err)
			}
			if len(parsed) == 0 {
				return nil, fmt.Errorf("%w: empty recommendations", apperr.ErrMalformedUpstream)
			}

			recs := make([]models.Recommendation, 0, len(parsed))
			for _, r := range parsed {
				if r.Title == "" {
					continue
				}
				recs = append(recs, models.Recommendation{Title: r.Title, Detail: r.Detail, Source: models.GeneratedByAI})
			}
			if len(recs) == 0 {
				return nil, fmt.Errorf("%w: no usable recommendations", apperr.ErrMalformedUpstream)
			}
			return recs, nil
		},
		func() []models.Recommendation {
			return defaultRecommendations(assessment.Severity)
		},
	)
}

// Chat forwards a message with mood context to the LLM. Unlike generation,
// chat has no deterministic fallback; the error surfaces to the handler.
func (c *Coach) Chat(ctx context.Context, message string, history []models.MoodEntry) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apperr.Validationf("message is required")
	}
	return c.gen.Complete(ctx, fmt.Sprintf(chatPrompt, describeEntries(history, 5), message))
}

// WeeklySummary writes a short reflection over the last week of entries,
// falling back to a computed sentence when the LLM is unavailable.
func (c *Coach) WeeklySummary(ctx context.Context, entries []models.MoodEntry) string {
	return tryAIThenFallback("weekly summary",
		func() (string, error) {
			if len(entries) == 0 {
				return "", apperr.Upstreamf("no entries to summarize")
			}
			text, err := c.gen.Complete(ctx, fmt.Sprintf(summaryPrompt, describeEntries(entries, 7)))
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(text) == "" {
				return "", fmt.Errorf("%w: empty summary", apperr.ErrMalformedUpstream)
			}
			return strings.TrimSpace(text), nil
		},
		func() string {
			return fallbackSummary(entries)
		},
	)
}

// unmarshalLenient parses LLM output as JSON, with one cleanup attempt that
// strips control characters, code fences and surrounding prose.
func unmarshalLenient(response string, v interface{}) error {
	if err := json.Unmarshal([]byte(response), v); err == nil {
		return nil
	}
	cleaned := cleanupJSON(response)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return err
	}
	return nil
}

func cleanupJSON(s string) string {
	// Drop control characters that break the decoder.
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	// Trim prose and markdown fences around the first JSON value.
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}

func recentFeelings(entries []models.MoodEntry, n int) string {
	var feelings []string
	for i := len(entries) - 1; i >= 0 && len(feelings) < n; i-- {
		if f := strings.TrimSpace(entries[i].Feeling); f != "" {
			feelings = append(feelings, f)
		}
	}
	if len(feelings) == 0 {
		return "none recorded"
	}
	return strings.Join(feelings, ", ")
}

func describeEntries(entries []models.MoodEntry, n int) string {
	if len(entries) == 0 {
		return "no check-ins recorded"
	}
	var lines []string
	for i := len(entries) - 1; i >= 0 && len(lines) < n; i-- {
		e := entries[i]
		line := fmt.Sprintf("- mood %d/4, stress %d/5", e.Mood, e.Stress)
		if e.Feeling != "" {
			line += ", feeling: " + e.Feeling
		}
		if e.Context != "" {
			line += ", context: " + e.Context
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func fallbackSummary(entries []models.MoodEntry) string {
	if len(entries) == 0 {
		return "No check-ins this week. Log how you feel to start seeing patterns."
	}
	avgStress := metrics.AverageStress(entries)
	avgMood := metrics.AverageMood(entries)
	switch {
	case avgStress >= 3.5:
		return fmt.Sprintf("A heavy week: average stress %.1f of 5. Consider starting a recovery challenge and protecting your sleep.", avgStress)
	case avgMood <= 1.5:
		return fmt.Sprintf("Mood ran low this week (average %.1f of 4). Small wins count; try one gentle activity per day.", avgMood)
	default:
		return fmt.Sprintf("A steady week: average mood %.1f of 4 and stress %.1f of 5. Keep doing what is working.", avgMood, avgStress)
	}
}

func defaultRecommendations(severity models.Severity) []models.Recommendation {
	base := []models.Recommendation{
		{Title: "Take a short walk", Detail: "Ten minutes outside breaks up the day and resets attention.", Source: models.GeneratedByDefault},
		{Title: "Check in with your breath", Detail: "Four slow breaths, longer exhale than inhale.", Source: models.GeneratedByDefault},
	}
	switch severity {
	case models.SeverityHigh, models.SeverityVeryHigh:
		return append([]models.Recommendation{
			{Title: "Drop one thing today", Detail: "Pick the least important commitment and postpone it.", Source: models.GeneratedByDefault},
		}, base...)
	case models.SeverityModerate:
		return append(base, models.Recommendation{
			Title: "Plan tomorrow tonight", Detail: "Three items max; uncertainty feeds stress.", Source: models.GeneratedByDefault,
		})
	default:
		return append(base, models.Recommendation{
			Title: "Bank the good day", Detail: "Note what went well so you can repeat it.", Source: models.GeneratedByDefault,
		})
	}
}
