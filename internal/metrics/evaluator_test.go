package metrics

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mossline/wellspring-server/internal/models"
)

func entriesWithStress(stresses ...int) []models.MoodEntry {
	entries := make([]models.MoodEntry, len(stresses))
	for i, s := range stresses {
		entries[i] = models.MoodEntry{Mood: 2, Stress: s}
	}
	return entries
}

func entriesWithMood(moods ...int) []models.MoodEntry {
	entries := make([]models.MoodEntry, len(moods))
	for i, m := range moods {
		entries[i] = models.MoodEntry{Mood: m, Stress: 1}
	}
	return entries
}

func TestEvaluateSeverityLadder(t *testing.T) {
	tests := []struct {
		name      string
		stresses  []int
		restingHR float64
		want      models.Severity
	}{
		{"very high stress average", []int{4, 4, 5}, 0, models.SeverityVeryHigh},
		{"very high resting HR alone", []int{1, 1}, 96, models.SeverityVeryHigh},
		{"high stress average", []int{4, 3}, 0, models.SeverityHigh},
		{"high resting HR alone", []int{1, 1}, 91, models.SeverityHigh},
		{"moderate", []int{3, 2}, 0, models.SeverityModerate},
		{"low", []int{2, 1}, 0, models.SeverityLow},
		{"none", []int{1, 1}, 0, models.SeverityNone},
		{"empty entries", nil, 0, models.SeverityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(entriesWithStress(tt.stresses...), models.FitnessSnapshot{RestingHeartRate: tt.restingHR})
			if got.Severity != tt.want {
				t.Errorf("Evaluate() severity = %q, want %q", got.Severity, tt.want)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	entries := entriesWithStress(3, 4, 2, 5)
	fitness := models.FitnessSnapshot{RestingHeartRate: 88, HeartPoints: 4}

	first := Evaluate(entries, fitness)
	second := Evaluate(entries, fitness)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Evaluate() not deterministic: %+v vs %+v", first, second)
	}
}

func TestEvaluateSeverityMonotonic(t *testing.T) {
	// Walking stress up with the same resting HR must never lower the tier.
	prevRank := -1
	for stress := 0; stress <= 5; stress++ {
		got := Evaluate(entriesWithStress(stress, stress, stress), models.FitnessSnapshot{})
		if got.Severity.Rank() < prevRank {
			t.Fatalf("severity dropped from rank %d to %d at stress %d", prevRank, got.Severity.Rank(), stress)
		}
		prevRank = got.Severity.Rank()
	}
}

func TestEvaluateWindowTruncation(t *testing.T) {
	// 20 old calm entries followed by 12 stressed ones; only the last 12 count.
	var entries []models.MoodEntry
	for i := 0; i < 20; i++ {
		entries = append(entries, models.MoodEntry{Mood: 3, Stress: 1})
	}
	for i := 0; i < 12; i++ {
		entries = append(entries, models.MoodEntry{Mood: 1, Stress: 5})
	}

	got := Evaluate(entries, models.FitnessSnapshot{})
	if got.AvgStress != 5 {
		t.Errorf("AvgStress = %v, want 5 (older entries must be ignored)", got.AvgStress)
	}
	if got.Severity != models.SeverityVeryHigh {
		t.Errorf("Severity = %q, want very_high", got.Severity)
	}
}

func TestEvaluateReasons(t *testing.T) {
	tests := []struct {
		name        string
		stresses    []int
		fitness     models.FitnessSnapshot
		wantReasons []string
	}{
		{
			name:     "elevated stress and zero heart points",
			stresses: []int{4, 4},
			fitness:  models.FitnessSnapshot{},
			wantReasons: []string{
				"elevated stress levels reported",
				"no heart points detected recently",
			},
		},
		{
			name:        "high resting HR only",
			stresses:    []int{1, 1},
			fitness:     models.FitnessSnapshot{RestingHeartRate: 92, HeartPoints: 10},
			wantReasons: []string{"high resting heart rate"},
		},
		{
			name:        "calm with activity",
			stresses:    []int{1, 1},
			fitness:     models.FitnessSnapshot{HeartPoints: 15},
			wantReasons: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(entriesWithStress(tt.stresses...), tt.fitness)
			if !reflect.DeepEqual(got.Reasons, tt.wantReasons) {
				t.Errorf("Reasons = %v, want %v", got.Reasons, tt.wantReasons)
			}
		})
	}
}

func TestDetectStressSpikes(t *testing.T) {
	entries := entriesWithStress(1, 4, 5)
	got := DetectStress(entries)
	if !got.Triggered {
		t.Fatal("expected trigger for two spikes in last three entries")
	}
	if !strings.Contains(strings.ToLower(got.Reason), "stress") {
		t.Errorf("Reason = %q, want mention of stress", got.Reason)
	}
}

func TestDetectStressMoodDrop(t *testing.T) {
	entries := entriesWithMood(4, 4, 3, 1)
	got := DetectStress(entries)
	if !got.Triggered {
		t.Fatal("expected trigger for mood swing across last four entries")
	}
	if !strings.Contains(strings.ToLower(got.Reason), "mood") {
		t.Errorf("Reason = %q, want mention of mood", got.Reason)
	}
}

func TestDetectStressNegative(t *testing.T) {
	entries := []models.MoodEntry{
		{Mood: 4, Stress: 1},
		{Mood: 4, Stress: 1},
		{Mood: 4, Stress: 1},
	}
	got := DetectStress(entries)
	if got.Triggered {
		t.Errorf("DetectStress() = %+v, want no trigger", got)
	}
}

func TestDetectStressMoodRuleNeedsFourEntries(t *testing.T) {
	// A swing of 3 over only 3 entries must not trigger rule 2; there is no
	// partial-window substitute.
	entries := entriesWithMood(4, 2, 1)
	got := DetectStress(entries)
	if got.Triggered {
		t.Errorf("DetectStress() triggered with only %d entries: %+v", len(entries), got)
	}
}

func TestDetectStressRuleOrder(t *testing.T) {
	// Both rules match; the spike rule is checked first.
	entries := []models.MoodEntry{
		{Mood: 4, Stress: 1},
		{Mood: 1, Stress: 5},
		{Mood: 2, Stress: 4},
		{Mood: 2, Stress: 4},
	}
	got := DetectStress(entries)
	if !got.Triggered || got.Reason != "recent stress spikes" {
		t.Errorf("DetectStress() = %+v, want spike rule to win", got)
	}
}
