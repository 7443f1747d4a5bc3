// Package http_test exercises the handlers through the full route stack.
package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightholme/internal/events"
	"brightholme/internal/leads"
	"brightholme/internal/settings"
	"brightholme/internal/testsupport"
)

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"

func trackRequest(t *testing.T, payload map[string]interface{}) *http.Request {
	t.Helper()

	jsonPayload, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/analytics/track", bytes.NewReader(jsonPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", desktopUA)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	req.Header.Set("Sec-Fetch-Site", "cross-site") // Required for browser-only validation
	return req
}

func eventCount(t *testing.T, dbManager *testsupport.TestDBManager) int64 {
	t.Helper()

	var count int64
	require.NoError(t, dbManager.GetConnection().Model(&events.PageviewEvent{}).Count(&count).Error)
	return count
}

func TestTrackPageviewHandler(t *testing.T) {
	t.Run("stores a valid pageview and returns 204", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		req := trackRequest(t, map[string]interface{}{
			"url":      "https://example.com/courses?utm_source=newsletter&utm_medium=email",
			"timezone": "Europe/London",
			"language": "en-GB",
		})
		req.Header.Set("CF-IPCountry", "GB")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		require.Equal(t, int64(1), eventCount(t, dbManager))

		var event events.PageviewEvent
		require.NoError(t, db.First(&event).Error)
		assert.Equal(t, "courses", event.PageSlug)
		assert.Equal(t, "Email", event.TrafficSource)
		assert.Equal(t, "GB", event.Country)
		assert.Equal(t, "Europe/London", event.Timezone)
		assert.Len(t, event.VisitorID, 32)
		assert.Len(t, event.SessionID, 32)
	})

	t.Run("drops bot traffic with 204", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		req := trackRequest(t, map[string]interface{}{
			"url": "https://example.com/",
		})
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; GoogleBot/2.1; +http://www.google.com/bot.html)")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, int64(0), eventCount(t, dbManager))
	})

	t.Run("drops admin paths with 204", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		req := trackRequest(t, map[string]interface{}{
			"url": "https://example.com/admin/analytics",
		})

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, int64(0), eventCount(t, dbManager))
	})

	t.Run("drops foreign origins with 204", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		req := trackRequest(t, map[string]interface{}{
			"url": "https://example.com/",
		})
		req.Header.Set("Origin", "https://attacker.example.net")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, int64(0), eventCount(t, dbManager))
	})

	t.Run("swallows unparseable payloads with 204", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		req := httptest.NewRequest("POST", "/analytics/track", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", desktopUA)
		req.Header.Set("Sec-Fetch-Site", "cross-site")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, int64(0), eventCount(t, dbManager))
	})

	t.Run("blocks posts without a Sec-Fetch-Site header", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		// Browsers always send Sec-Fetch-Site; curl and scripts cannot.
		req := trackRequest(t, map[string]interface{}{
			"url": "https://example.com/",
		})
		req.Header.Del("Sec-Fetch-Site")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, int64(0), eventCount(t, dbManager))
	})

	t.Run("answers preflight with 204", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		req := httptest.NewRequest("OPTIONS", "/analytics/track", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Sec-Fetch-Site", "cross-site")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestDashboardAnalyticsHandler(t *testing.T) {
	apiKey := "test-dashboard-api-key"

	t.Run("rejects missing and invalid API keys", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)
		require.NoError(t, settings.SetDashboardAPIKey(db, apiKey))

		app := testsupport.CreateMinimalTestApp(t, db)

		req := httptest.NewRequest("GET", "/admin/analytics", nil)
		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		req = httptest.NewRequest("GET", "/admin/analytics", nil)
		req.Header.Set("Authorization", "Bearer the-wrong-key")
		resp, err = app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		req = httptest.NewRequest("GET", "/admin/analytics", nil)
		req.Header.Set("Authorization", apiKey)
		resp, err = app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "non-Bearer scheme rejected")
	})

	t.Run("serves the report with a valid key", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)
		require.NoError(t, settings.SetDashboardAPIKey(db, apiKey))

		testsupport.CreatePageview(t, db, testsupport.PageviewOptions{
			CreatedAt: time.Now().UTC().Add(-time.Hour),
		})
		app := testsupport.CreateMinimalTestApp(t, db)

		req := httptest.NewRequest("GET", "/admin/analytics?range=7", nil)
		req.Header.Set("Authorization", "Bearer "+apiKey)

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var report map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &report))
		assert.Equal(t, float64(7), report["range_days"])
		assert.Equal(t, float64(1), report["page_views"])
		assert.NotEmpty(t, report["kpi_cards"])
	})

	t.Run("falls back to 30 days on an unknown range", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)
		require.NoError(t, settings.SetDashboardAPIKey(db, apiKey))

		app := testsupport.CreateMinimalTestApp(t, db)

		req := httptest.NewRequest("GET", "/admin/analytics?range=365", nil)
		req.Header.Set("Authorization", "Bearer "+apiKey)

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var report map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &report))
		assert.Equal(t, float64(30), report["range_days"])
	})
}

func TestLeadHandlers(t *testing.T) {
	t.Run("creates a contact lead from a form post", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		form := url.Values{}
		form.Set("full_name", "Jordan Smith")
		form.Set("email", "jordan@example.com")
		form.Set("message", "Asking about sixth form entry.")

		req := httptest.NewRequest("POST", "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Referer", "https://example.com/contact")
		req.Header.Set("Sec-Fetch-Site", "cross-site")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var stored leads.Lead
		require.NoError(t, db.First(&stored).Error)
		assert.Equal(t, leads.TypeContact, stored.LeadType)
		assert.Equal(t, leads.StatusNew, stored.Status)
		assert.Equal(t, "https://example.com/contact", stored.Source, "source falls back to the referring page")
	})

	t.Run("rejects an incomplete contact lead", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		body, err := json.Marshal(map[string]string{"email": "no-name@example.com"})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/contact", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Sec-Fetch-Site", "cross-site")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var count int64
		require.NoError(t, db.Model(&leads.Lead{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("creates a newsletter subscription", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateMinimalTestApp(t, db)

		body, err := json.Marshal(map[string]string{"email": "subscriber@example.com"})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/subscribe", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Sec-Fetch-Site", "cross-site")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var stored leads.Lead
		require.NoError(t, db.First(&stored).Error)
		assert.Equal(t, leads.TypeSubscription, stored.LeadType)
	})

	t.Run("admin can list leads and move them through the pipeline", func(t *testing.T) {
		apiKey := "test-dashboard-api-key"

		dbManager, logger := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)
		require.NoError(t, settings.SetDashboardAPIKey(db, apiKey))

		lead, err := leads.CreateLead(dbManager, logger, leads.CreateLeadInput{
			LeadType: leads.TypeConsultation,
			Email:    "prospect@example.com",
		})
		require.NoError(t, err)

		app := testsupport.CreateMinimalTestApp(t, db)

		req := httptest.NewRequest("GET", "/admin/leads", nil)
		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "listing requires the API key")

		req = httptest.NewRequest("GET", "/admin/leads", nil)
		req.Header.Set("Authorization", "Bearer "+apiKey)
		resp, err = app.Test(req, 30000)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var listing struct {
			Leads []leads.Lead `json:"leads"`
		}
		require.NoError(t, json.Unmarshal(body, &listing))
		require.Len(t, listing.Leads, 1)

		statusBody, err := json.Marshal(map[string]string{"status": leads.StatusContacted})
		require.NoError(t, err)

		req = httptest.NewRequest("POST", "/admin/leads/1/status", bytes.NewReader(statusBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Sec-Fetch-Site", "same-origin")
		resp, err = app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated leads.Lead
		require.NoError(t, db.First(&updated, lead.ID).Error)
		assert.Equal(t, leads.StatusContacted, updated.Status)
	})
}

func TestHealthHandler(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	app := testsupport.CreateMinimalTestApp(t, db)

	req := httptest.NewRequest("GET", "/_health", nil)
	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "ok", status["db_status"])
}
