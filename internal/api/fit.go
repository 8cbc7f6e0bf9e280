package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/mossline/wellspring-server/internal/store"
)

// FitAuthURL handles GET /api/v1/fit/auth-url. The userId rides along as the
// OAuth state so the callback knows whose token to store.
func (h *Handlers) FitAuthURL(w http.ResponseWriter, r *http.Request) {
	if h.fit == nil || !h.fit.Configured() {
		writeError(w, http.StatusServiceUnavailable, "google fit is not configured", "FIT_UNAVAILABLE")
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "VALIDATION")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": h.fit.AuthURL(userID)})
}

// FitCallback handles GET /oauth2/fit/callback
func (h *Handlers) FitCallback(w http.ResponseWriter, r *http.Request) {
	if h.fit == nil || !h.fit.Configured() {
		http.Error(w, "google fit is not configured", http.StatusServiceUnavailable)
		return
	}

	userID := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if userID == "" || code == "" {
		http.Error(w, "missing state or code", http.StatusBadRequest)
		return
	}

	token, err := h.fit.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, "authorization failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	err = h.store.Update(func(doc *store.Document) error {
		doc.FitTokens[userID] = token
		return nil
	})
	if err != nil {
		http.Error(w, "storing token failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><p>Google Fit connected. You can close this window.</p></body></html>")
}

// FitDaily handles GET /api/v1/fit/daily. Defaults to today; an explicit
// date comes in as YYYY-MM-DD.
func (h *Handlers) FitDaily(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "VALIDATION")
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "VALIDATION")
			return
		}
		day = parsed
	}

	token, ok := h.fitToken(w, userID)
	if !ok {
		return
	}

	snapshot, refreshed, err := h.fit.DailyMetrics(r.Context(), token, day)
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.persistToken(userID, refreshed)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    day.Format("2006-01-02"),
		"metrics": snapshot,
	})
}

// FitMonthly handles GET /api/v1/fit/monthly
func (h *Handlers) FitMonthly(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "VALIDATION")
		return
	}

	now := time.Now().UTC()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1..12", "VALIDATION")
		return
	}

	token, ok := h.fitToken(w, userID)
	if !ok {
		return
	}

	days, refreshed, err := h.fit.MonthlyMetrics(r.Context(), token, year, time.Month(month))
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.persistToken(userID, refreshed)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

// fitToken loads the stored token, writing the error response itself when the
// account is not connected.
func (h *Handlers) fitToken(w http.ResponseWriter, userID string) (*oauth2.Token, bool) {
	if h.fit == nil || !h.fit.Configured() {
		writeError(w, http.StatusServiceUnavailable, "google fit is not configured", "FIT_UNAVAILABLE")
		return nil, false
	}

	var token *oauth2.Token
	err := h.store.View(func(doc *store.Document) error {
		token = doc.FitTokens[userID]
		return nil
	})
	if err != nil {
		writeAppError(w, err)
		return nil, false
	}
	if token == nil {
		writeError(w, http.StatusNotFound, "google fit account not connected", "NOT_CONNECTED")
		return nil, false
	}
	return token, true
}

// persistToken saves a refreshed token so the next call skips the 401 round trip.
func (h *Handlers) persistToken(userID string, refreshed *oauth2.Token) {
	if refreshed == nil {
		return
	}
	err := h.store.Update(func(doc *store.Document) error {
		doc.FitTokens[userID] = refreshed
		return nil
	})
	if err != nil {
		// Not fatal: the old refresh token still works, the next request
		// just pays the 401 round trip again.
		log.Printf("persisting refreshed fit token for %s: %v", userID, err)
	}
}
