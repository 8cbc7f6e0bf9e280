// Package fit talks to the Google Fit REST API: the OAuth2 consent flow and
// the dataset aggregate endpoint. Callers get back parsed daily metrics; raw
// buckets never leave this package.
package fit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mossline/wellspring-server/internal/apperr"
	"github.com/mossline/wellspring-server/internal/models"
)

const defaultAPIBase = "https://www.googleapis.com/fitness/v1"

const (
	dataTypeSteps       = "com.google.step_count.delta"
	dataTypeHeartPoints = "com.google.heart_minutes"
	dataTypeHeartRate   = "com.google.heart_rate.bpm"
	dataTypeSleep       = "com.google.sleep.segment"
)

// Client wraps the Google Fit API.
type Client struct {
	oauth      *oauth2.Config
	apiBase    string
	httpClient *http.Client
	location   *time.Location
}

// NewClient creates a fit client. loc is the timezone used to key daily
// buckets for monthly views.
func NewClient(clientID, clientSecret, redirectURL string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/fitness.activity.read",
				"https://www.googleapis.com/auth/fitness.heart_rate.read",
				"https://www.googleapis.com/auth/fitness.sleep.read",
			},
		},
		apiBase: defaultAPIBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		location: loc,
	}
}

// Configured reports whether OAuth credentials are present.
func (c *Client) Configured() bool {
	return c.oauth.ClientID != "" && c.oauth.ClientSecret != ""
}

// AuthURL builds the consent URL. Offline access so a refresh token comes back.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.Upstreamf("exchanging authorization code: %v", err)
	}
	return tok, nil
}

// DaySummary is one calendar day in a monthly view.
type DaySummary struct {
	Date        string  `json:"date"`
	Steps       int     `json:"steps"`
	HeartPoints float64 `json:"heartPoints"`
}

type aggregateRequest struct {
	AggregateBy     []aggregateBy `json:"aggregateBy"`
	BucketByTime    bucketByTime  `json:"bucketByTime"`
	StartTimeMillis int64         `json:"startTimeMillis"`
	EndTimeMillis   int64         `json:"endTimeMillis"`
}

type aggregateBy struct {
	DataTypeName string `json:"dataTypeName"`
}

type bucketByTime struct {
	DurationMillis int64 `json:"durationMillis"`
}

type aggregateValue struct {
	IntVal int64   `json:"intVal"`
	FpVal  float64 `json:"fpVal"`
}

type aggregatePoint struct {
	DataTypeName   string           `json:"dataTypeName"`
	StartTimeNanos string           `json:"startTimeNanos"`
	EndTimeNanos   string           `json:"endTimeNanos"`
	Value          []aggregateValue `json:"value"`
}

type aggregateDataset struct {
	Point []aggregatePoint `json:"point"`
}

type aggregateBucket struct {
	StartTimeMillis string             `json:"startTimeMillis"`
	Dataset         []aggregateDataset `json:"dataset"`
}

type aggregateResponse struct {
	Bucket []aggregateBucket `json:"bucket"`
}

// DailyMetrics fetches one UTC day's metrics. The returned token is non-nil
// when a refresh happened and should be persisted by the caller.
func (c *Client) DailyMetrics(ctx context.Context, token *oauth2.Token, day time.Time) (*models.FitnessSnapshot, *oauth2.Token, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	req := aggregateRequest{
		AggregateBy: []aggregateBy{
			{DataTypeName: dataTypeSteps},
			{DataTypeName: dataTypeHeartPoints},
			{DataTypeName: dataTypeHeartRate},
			{DataTypeName: dataTypeSleep},
		},
		BucketByTime:    bucketByTime{DurationMillis: end.Sub(start).Milliseconds()},
		StartTimeMillis: start.UnixMilli(),
		EndTimeMillis:   end.UnixMilli(),
	}

	parsed, refreshed, err := c.aggregate(ctx, token, req)
	if err != nil {
		return nil, nil, err
	}

	snapshot := &models.FitnessSnapshot{}
	for _, bucket := range parsed.Bucket {
		addBucket(snapshot, bucket)
	}
	return snapshot, refreshed, nil
}

// MonthlyMetrics fetches per-day steps and heart points for a calendar month.
// Buckets are aggregated on UTC day boundaries but keyed by the configured
// local timezone, matching how the dashboard's month view has always read
// them; near-midnight activity can land on the neighboring date.
func (c *Client) MonthlyMetrics(ctx context.Context, token *oauth2.Token, year int, month time.Month) (map[string]DaySummary, *oauth2.Token, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	req := aggregateRequest{
		AggregateBy: []aggregateBy{
			{DataTypeName: dataTypeSteps},
			{DataTypeName: dataTypeHeartPoints},
		},
		BucketByTime:    bucketByTime{DurationMillis: (24 * time.Hour).Milliseconds()},
		StartTimeMillis: start.UnixMilli(),
		EndTimeMillis:   end.UnixMilli(),
	}

	parsed, refreshed, err := c.aggregate(ctx, token, req)
	if err != nil {
		return nil, nil, err
	}

	days := make(map[string]DaySummary)
	for _, bucket := range parsed.Bucket {
		millis, err := strconv.ParseInt(bucket.StartTimeMillis, 10, 64)
		if err != nil {
			continue
		}
		key := time.UnixMilli(millis).In(c.location).Format("2006-01-02")

		var snapshot models.FitnessSnapshot
		addBucket(&snapshot, bucket)

		day := days[key]
		day.Date = key
		day.Steps += snapshot.StepsToday
		day.HeartPoints += snapshot.HeartPoints
		days[key] = day
	}
	return days, refreshed, nil
}

// aggregate posts the request, refreshing the token and retrying exactly once
// on 401. No backoff, no circuit breaker.
func (c *Client) aggregate(ctx context.Context, token *oauth2.Token, req aggregateRequest) (*aggregateResponse, *oauth2.Token, error) {
	if token == nil || token.AccessToken == "" {
		return nil, nil, apperr.Validationf("google fit account not connected")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling aggregate request: %w", err)
	}

	parsed, status, err := c.post(ctx, token.AccessToken, body)
	if err != nil {
		return nil, nil, err
	}
	if status == http.StatusUnauthorized {
		refreshed, err := c.refresh(ctx, token)
		if err != nil {
			return nil, nil, err
		}
		parsed, status, err = c.post(ctx, refreshed.AccessToken, body)
		if err != nil {
			return nil, nil, err
		}
		if status != http.StatusOK {
			return nil, nil, apperr.Upstreamf("fit aggregate returned status %d after token refresh", status)
		}
		return parsed, refreshed, nil
	}
	if status != http.StatusOK {
		return nil, nil, apperr.Upstreamf("fit aggregate returned status %d", status)
	}
	return parsed, nil, nil
}

func (c *Client) post(ctx context.Context, accessToken string, body []byte) (*aggregateResponse, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/users/me/dataset:aggregate", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, apperr.Upstreamf("calling fit aggregate: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var parsed aggregateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("%w: fit aggregate: %v", apperr.ErrMalformedUpstream, err)
	}
	return &parsed, http.StatusOK, nil
}

func (c *Client) refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	// Force the token source to hit the refresh endpoint by marking the
	// current access token expired.
	stale := *token
	stale.Expiry = time.Now().Add(-time.Hour)

	refreshed, err := c.oauth.TokenSource(ctx, &stale).Token()
	if err != nil {
		return nil, apperr.Upstreamf("refreshing fit token: %v", err)
	}
	return refreshed, nil
}

// addBucket folds one aggregate bucket into a snapshot.
func addBucket(snapshot *models.FitnessSnapshot, bucket aggregateBucket) {
	for _, dataset := range bucket.Dataset {
		for _, point := range dataset.Point {
			switch point.DataTypeName {
			case dataTypeSteps, "com.google.step_count.delta:aggregated":
				if len(point.Value) > 0 {
					snapshot.StepsToday += int(point.Value[0].IntVal)
				}
			case dataTypeHeartPoints, "com.google.heart_minutes.summary":
				if len(point.Value) > 0 {
					snapshot.HeartPoints += point.Value[0].FpVal
				}
			case dataTypeHeartRate, "com.google.heart_rate.summary":
				// Summary points carry [average, max, min]; the daily minimum
				// stands in for resting heart rate.
				if len(point.Value) > 0 {
					snapshot.AvgHeartRate = point.Value[0].FpVal
				}
				if len(point.Value) > 2 {
					snapshot.RestingHeartRate = point.Value[2].FpVal
				}
			case dataTypeSleep, "com.google.sleep.segment:merged":
				snapshot.SleepHours += sleepHours(point)
			}
		}
	}
}

// Sleep stage codes: 1 awake, 2 sleep, 3 out of bed, 4 light, 5 deep, 6 REM.
func sleepHours(point aggregatePoint) float64 {
	if len(point.Value) == 0 {
		return 0
	}
	switch point.Value[0].IntVal {
	case 2, 4, 5, 6:
	default:
		return 0
	}

	startNanos, err1 := strconv.ParseInt(point.StartTimeNanos, 10, 64)
	endNanos, err2 := strconv.ParseInt(point.EndTimeNanos, 10, 64)
	if err1 != nil || err2 != nil || endNanos <= startNanos {
		return 0
	}
	return time.Duration(endNanos - startNanos).Hours()
}
