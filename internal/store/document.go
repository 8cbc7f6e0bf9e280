package store

import (
	"github.com/mossline/wellspring-server/internal/models"
	"golang.org/x/oauth2"
)

// Document is the whole persisted state, read and written as one unit.
// Every section is keyed by userId; there is no sub-record locking.
type Document struct {
	MoodEntries   map[string][]models.MoodEntry        `json:"moodEntries"`
	DashboardData map[string]*models.Dashboard         `json:"dashboardData"`
	Challenges    map[string][]models.ChallengeInstance `json:"challenges"`
	FitTokens     map[string]*oauth2.Token             `json:"fitTokens,omitempty"`
}

// NewDocument returns an empty document with all sections allocated.
func NewDocument() *Document {
	return &Document{
		MoodEntries:   make(map[string][]models.MoodEntry),
		DashboardData: make(map[string]*models.Dashboard),
		Challenges:    make(map[string][]models.ChallengeInstance),
		FitTokens:     make(map[string]*oauth2.Token),
	}
}

// normalize allocates any section missing from an older stored document.
func (d *Document) normalize() {
	if d.MoodEntries == nil {
		d.MoodEntries = make(map[string][]models.MoodEntry)
	}
	if d.DashboardData == nil {
		d.DashboardData = make(map[string]*models.Dashboard)
	}
	if d.Challenges == nil {
		d.Challenges = make(map[string][]models.ChallengeInstance)
	}
	if d.FitTokens == nil {
		d.FitTokens = make(map[string]*oauth2.Token)
	}
}

// Dashboard returns the dashboard for a user, creating it if needed.
func (d *Document) Dashboard(userID string) *models.Dashboard {
	dash, ok := d.DashboardData[userID]
	if !ok {
		dash = &models.Dashboard{CompletedChallenges: []models.CompletedChallenge{}}
		d.DashboardData[userID] = dash
	}
	return dash
}

// UserIDs returns every user mentioned anywhere in the document.
func (d *Document) UserIDs() []string {
	seen := make(map[string]bool)
	for id := range d.MoodEntries {
		seen[id] = true
	}
	for id := range d.DashboardData {
		seen[id] = true
	}
	for id := range d.Challenges {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}
