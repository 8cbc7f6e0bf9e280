package coach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mossline/wellspring-server/internal/challenge"
	"github.com/mossline/wellspring-server/internal/models"
)

type fakeGenerator struct {
	response   string
	err        error
	configured bool
	calls      int
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func stressedHistory(n int) []models.MoodEntry {
	entries := make([]models.MoodEntry, n)
	for i := range entries {
		entries[i] = models.MoodEntry{Mood: 1, Stress: 5, Feeling: "overwhelmed"}
	}
	return entries
}

const validChallengeJSON = `{
  "challengeName": "Custom Calm",
  "difficulty": "gentle",
  "description": "A personalized reset.",
  "days": [
    {"day": 1, "theme": "Breathe", "objective": "Slow down", "tasks": [
      {"name": "Morning breathing", "duration": "5 minutes", "technique": "Box breathing",
       "steps": ["Sit down", "Breathe in fours"], "impact": "Expected stress reduction: ~15%"},
      {"name": "Evening walk", "duration": "15 minutes", "technique": "Walking",
       "steps": ["Go outside", "Walk slowly"], "impact": "Expected stress reduction: ~10%"}
    ]},
    {"day": 2, "theme": "Move", "objective": "Light activity", "tasks": [
      {"name": "Stretch", "duration": "10 minutes", "technique": "Stretching",
       "steps": ["Roll shoulders", "Touch toes"], "impact": "Expected energy lift: ~10%"}
    ]},
    {"day": 3, "theme": "Reflect", "objective": "Close the loop", "tasks": [
      {"name": "Journal", "duration": "10 minutes", "technique": "Journaling",
       "steps": ["Write three lines"], "impact": "Expected mood lift: ~10%"}
    ]}
  ]
}`

func TestGenerateChallengeUsesAIOutput(t *testing.T) {
	gen := &fakeGenerator{response: validChallengeJSON, configured: true}
	c := New(gen)

	draft := c.GenerateChallenge(context.Background(), stressedHistory(10), challenge.Context{})

	if draft.GeneratedBy != models.GeneratedByAI {
		t.Errorf("GeneratedBy = %q, want AI", draft.GeneratedBy)
	}
	if draft.Name != "Custom Calm" {
		t.Errorf("Name = %q", draft.Name)
	}
	if draft.Pattern != string(challenge.PatternHighStressLowMood) {
		t.Errorf("Pattern = %q, want detected pattern stamped", draft.Pattern)
	}
	for _, day := range draft.Days {
		for _, task := range day.Tasks {
			if task.ID == "" {
				t.Errorf("AI task %q missing synthetic ID", task.Name)
			}
		}
	}
}

func TestGenerateChallengeToleratesFencedJSON(t *testing.T) {
	gen := &fakeGenerator{
		response:   "Here is your plan:\n```json\n" + validChallengeJSON + "\n```\nEnjoy!",
		configured: true,
	}
	c := New(gen)

	draft := c.GenerateChallenge(context.Background(), stressedHistory(10), challenge.Context{})
	if draft.GeneratedBy != models.GeneratedByAI || draft.Name != "Custom Calm" {
		t.Errorf("fenced JSON should still parse, got %q from %q", draft.Name, draft.GeneratedBy)
	}
}

func TestGenerateChallengeFallsBackOnProviderError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused"), configured: true}
	c := New(gen)

	draft := c.GenerateChallenge(context.Background(), stressedHistory(10), challenge.Context{})
	if draft.GeneratedBy != models.GeneratedByDataDriven {
		t.Errorf("GeneratedBy = %q, want DataDriven fallback", draft.GeneratedBy)
	}
	if draft.Pattern != string(challenge.PatternHighStressLowMood) {
		t.Errorf("Pattern = %q", draft.Pattern)
	}
}

func TestGenerateChallengeFallsBackOnMalformedOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json at all", "I cannot help with that."},
		{"wrong day count", `{"challengeName": "X", "days": [{"day": 1, "tasks": [{"name": "t"}]}]}`},
		{"missing name", `{"days": [{"day":1,"tasks":[{"name":"t"}]},{"day":2,"tasks":[{"name":"t"}]},{"day":3,"tasks":[{"name":"t"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{response: tt.response, configured: true}
			draft := New(gen).GenerateChallenge(context.Background(), stressedHistory(10), challenge.Context{})
			if draft.GeneratedBy != models.GeneratedByDataDriven {
				t.Errorf("GeneratedBy = %q, want DataDriven fallback", draft.GeneratedBy)
			}
		})
	}
}

func TestGenerateChallengeEmptyHistorySkipsAI(t *testing.T) {
	gen := &fakeGenerator{response: validChallengeJSON, configured: true}
	c := New(gen)

	draft := c.GenerateChallenge(context.Background(), nil, challenge.Context{})
	if draft.GeneratedBy != models.GeneratedByDefault {
		t.Errorf("GeneratedBy = %q, want Default", draft.GeneratedBy)
	}
	if gen.calls != 0 {
		t.Errorf("LLM called %d times for empty history, want 0", gen.calls)
	}
}

func TestRecommendationsAIAndFallback(t *testing.T) {
	assessment := models.StressAssessment{Severity: models.SeverityHigh, AvgStress: 4.1, AvgMood: 1.8}

	gen := &fakeGenerator{
		response:   `[{"title": "Pause", "detail": "Take five."}, {"title": "Hydrate", "detail": "Drink water."}]`,
		configured: true,
	}
	recs := New(gen).Recommendations(context.Background(), assessment)
	if len(recs) != 2 || recs[0].Source != models.GeneratedByAI {
		t.Errorf("AI recs = %+v", recs)
	}

	broken := &fakeGenerator{response: "sorry, no", configured: true}
	fallback := New(broken).Recommendations(context.Background(), assessment)
	if len(fallback) == 0 {
		t.Fatal("fallback recommendations empty")
	}
	for _, r := range fallback {
		if r.Source != models.GeneratedByDefault {
			t.Errorf("fallback rec source = %q", r.Source)
		}
	}
}

func TestChatSurfacesErrors(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("no key"), configured: false}
	c := New(gen)

	if _, err := c.Chat(context.Background(), "hello", nil); err == nil {
		t.Error("expected error when provider fails")
	}
	if _, err := c.Chat(context.Background(), "   ", nil); err == nil {
		t.Error("expected validation error for empty message")
	}
}

func TestWeeklySummaryFallback(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("down"), configured: true}
	c := New(gen)

	got := c.WeeklySummary(context.Background(), stressedHistory(7))
	if !strings.Contains(got, "stress") {
		t.Errorf("fallback summary = %q, want stress mention for a heavy week", got)
	}

	empty := c.WeeklySummary(context.Background(), nil)
	if !strings.Contains(empty, "No check-ins") {
		t.Errorf("empty summary = %q", empty)
	}
}

func TestCleanupJSON(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	got := cleanupJSON(in)
	if got != `{"a": 1}` {
		t.Errorf("cleanupJSON() = %q", got)
	}

	withCtl := "{\"a\": \x01\"b\"}"
	var v map[string]string
	if err := unmarshalLenient(withCtl, &v); err != nil {
		t.Errorf("unmarshalLenient() with control chars: %v", err)
	}
}
