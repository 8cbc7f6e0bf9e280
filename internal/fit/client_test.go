package fit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newTestClient(apiBase, tokenURL string) *Client {
	c := NewClient("client-id", "client-secret", "http://localhost/callback", time.UTC)
	c.apiBase = apiBase
	c.oauth.Endpoint = oauth2.Endpoint{AuthURL: tokenURL + "/auth", TokenURL: tokenURL + "/token"}
	return c
}

func sampleAggregateResponse(startMillis int64) aggregateResponse {
	nanos := func(t time.Time) string {
		return strconv.FormatInt(t.UnixNano(), 10)
	}
	night := time.UnixMilli(startMillis)
	return aggregateResponse{
		Bucket: []aggregateBucket{
			{
				StartTimeMillis: strconv.FormatInt(startMillis, 10),
				Dataset: []aggregateDataset{
					{Point: []aggregatePoint{
						{DataTypeName: "com.google.step_count.delta", Value: []aggregateValue{{IntVal: 7432}}},
					}},
					{Point: []aggregatePoint{
						{DataTypeName: "com.google.heart_minutes", Value: []aggregateValue{{FpVal: 23.5}}},
					}},
					{Point: []aggregatePoint{
						{DataTypeName: "com.google.heart_rate.bpm", Value: []aggregateValue{{FpVal: 72.1}, {FpVal: 140}, {FpVal: 58.4}}},
					}},
					{Point: []aggregatePoint{
						{
							DataTypeName:   "com.google.sleep.segment",
							StartTimeNanos: nanos(night),
							EndTimeNanos:   nanos(night.Add(7 * time.Hour)),
							Value:          []aggregateValue{{IntVal: 2}},
						},
						{
							DataTypeName:   "com.google.sleep.segment",
							StartTimeNanos: nanos(night.Add(7 * time.Hour)),
							EndTimeNanos:   nanos(night.Add(8 * time.Hour)),
							Value:          []aggregateValue{{IntVal: 1}}, // awake, excluded
						},
					}},
				},
			},
		},
	}
}

func TestDailyMetricsParsesAggregateBuckets(t *testing.T) {
	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me/dataset:aggregate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req aggregateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.StartTimeMillis != day.UnixMilli() {
			t.Errorf("StartTimeMillis = %d, want %d", req.StartTimeMillis, day.UnixMilli())
		}
		json.NewEncoder(w).Encode(sampleAggregateResponse(day.UnixMilli()))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	token := &oauth2.Token{AccessToken: "valid", Expiry: time.Now().Add(time.Hour)}

	snapshot, refreshed, err := client.DailyMetrics(context.Background(), token, day)
	if err != nil {
		t.Fatalf("DailyMetrics() error: %v", err)
	}
	if refreshed != nil {
		t.Error("no refresh should happen on a 200")
	}
	if snapshot.StepsToday != 7432 {
		t.Errorf("StepsToday = %d, want 7432", snapshot.StepsToday)
	}
	if snapshot.HeartPoints != 23.5 {
		t.Errorf("HeartPoints = %v, want 23.5", snapshot.HeartPoints)
	}
	if snapshot.AvgHeartRate != 72.1 || snapshot.RestingHeartRate != 58.4 {
		t.Errorf("heart rate = avg %v resting %v", snapshot.AvgHeartRate, snapshot.RestingHeartRate)
	}
	if snapshot.SleepHours != 7 {
		t.Errorf("SleepHours = %v, want 7 (awake segment excluded)", snapshot.SleepHours)
	}
}

func TestDailyMetricsRefreshesOnceOn401(t *testing.T) {
	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	var aggregateCalls, refreshCalls int

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "fresh",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/users/me/dataset:aggregate", func(w http.ResponseWriter, r *http.Request) {
		aggregateCalls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(sampleAggregateResponse(day.UnixMilli()))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	token := &oauth2.Token{AccessToken: "stale", RefreshToken: "refresh-me", Expiry: time.Now().Add(time.Hour)}

	snapshot, refreshed, err := client.DailyMetrics(context.Background(), token, day)
	if err != nil {
		t.Fatalf("DailyMetrics() error: %v", err)
	}
	if aggregateCalls != 2 {
		t.Errorf("aggregate calls = %d, want 2 (original + one retry)", aggregateCalls)
	}
	if refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", refreshCalls)
	}
	if refreshed == nil || refreshed.AccessToken != "fresh" {
		t.Errorf("refreshed token = %+v, want the fresh one back for persistence", refreshed)
	}
	if snapshot.StepsToday != 7432 {
		t.Errorf("StepsToday = %d after refresh", snapshot.StepsToday)
	}
}

func TestDailyMetricsSurfacesRepeated401(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "fresh", "token_type": "Bearer", "expires_in": 3600,
		})
	})
	mux.HandleFunc("/users/me/dataset:aggregate", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	token := &oauth2.Token{AccessToken: "stale", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)}

	_, _, err := client.DailyMetrics(context.Background(), token, time.Now().UTC())
	if err == nil {
		t.Fatal("expected error after refresh retry also fails")
	}
}

func TestDailyMetricsRequiresToken(t *testing.T) {
	client := newTestClient("http://unused", "http://unused")
	if _, _, err := client.DailyMetrics(context.Background(), nil, time.Now()); err == nil {
		t.Error("expected error for missing token")
	}
}

func TestMonthlyMetricsKeysBucketsByLocalDate(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := aggregateResponse{
			Bucket: []aggregateBucket{
				{
					StartTimeMillis: strconv.FormatInt(start.UnixMilli(), 10),
					Dataset: []aggregateDataset{{Point: []aggregatePoint{
						{DataTypeName: "com.google.step_count.delta", Value: []aggregateValue{{IntVal: 1000}}},
					}}},
				},
				{
					StartTimeMillis: strconv.FormatInt(start.AddDate(0, 0, 1).UnixMilli(), 10),
					Dataset: []aggregateDataset{{Point: []aggregatePoint{
						{DataTypeName: "com.google.step_count.delta", Value: []aggregateValue{{IntVal: 2500}}},
						{DataTypeName: "com.google.heart_minutes", Value: []aggregateValue{{FpVal: 12}}},
					}}},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	token := &oauth2.Token{AccessToken: "valid", Expiry: time.Now().Add(time.Hour)}

	days, _, err := client.MonthlyMetrics(context.Background(), token, 2026, time.August)
	if err != nil {
		t.Fatalf("MonthlyMetrics() error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	if d := days["2026-08-01"]; d.Steps != 1000 {
		t.Errorf("2026-08-01 = %+v", d)
	}
	if d := days["2026-08-02"]; d.Steps != 2500 || d.HeartPoints != 12 {
		t.Errorf("2026-08-02 = %+v", d)
	}
}

func TestAuthURLIncludesOfflineAccess(t *testing.T) {
	client := NewClient("client-id", "secret", "http://localhost/callback", time.UTC)
	url := client.AuthURL("state-123")
	for _, want := range []string{"access_type=offline", "state=state-123", "client_id=client-id"} {
		if !strings.Contains(url, want) {
			t.Errorf("AuthURL missing %q: %s", want, url)
		}
	}
}
