package events

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"brightholme/internal/pkg/geoip"
	"brightholme/internal/pkg/referrers"
	"brightholme/internal/pkg/useragent"
	"brightholme/internal/settings"
	"brightholme/internal/visitors"
)

// UnknownCountry labels events where no geographic signal was available.
const UnknownCountry = "Unknown"

// countryHeaders are checked in order; the first usable value wins. They
// are set by CDN/proxy layers, so they beat any client-supplied signal.
var countryHeaders = []string{"CF-IPCountry", "X-Appengine-Country", "X-Country-Code"}

// RejectReason says why a pageview was dropped instead of stored. The
// tracking endpoint never surfaces these to the client; they exist for
// logging and tests.
type RejectReason string

const (
	RejectAdminPath      RejectReason = "admin_path"
	RejectBotTraffic     RejectReason = "bot_traffic"
	RejectOriginMismatch RejectReason = "origin_mismatch"
	RejectExcludedIP     RejectReason = "excluded_ip"
)

// CollectResult reports what happened to a submitted pageview.
type CollectResult struct {
	Accepted bool
	Reason   RejectReason
	Event    *PageviewEvent
}

func accepted(event *PageviewEvent) CollectResult {
	return CollectResult{Accepted: true, Event: event}
}

func rejected(reason RejectReason) CollectResult {
	return CollectResult{Reason: reason}
}

// TrackPayload is the JSON body the tracking snippet posts. Every field is
// optional; the collector fills gaps from request metadata.
type TrackPayload struct {
	URL            string `json:"url"`
	Path           string `json:"path"`
	Referrer       string `json:"referrer"`
	PageSlug       string `json:"page_slug"`
	PageTitle      string `json:"page_title"`
	VisitorID      string `json:"visitor_id"`
	SessionID      string `json:"session_id"`
	IsSessionStart bool   `json:"is_session_start"`
	Language       string `json:"language"`
	Timezone       string `json:"timezone"`
	ScreenWidth    *int   `json:"screen_width"`
	ScreenHeight   *int   `json:"screen_height"`
}

// CollectInput bundles the payload with the request metadata the collector
// needs. Header gives access to proxy-set headers without coupling this
// package to the HTTP layer.
type CollectInput struct {
	Payload    TrackPayload
	ClientIP   string
	UserAgent  string
	Origin     string
	Host       string
	Header     func(name string) string
	ReceivedAt time.Time
}

// CollectPageview classifies and stores one pageview. A rejection is not an
// error: the result says the event was dropped and why, and the caller
// still answers the client with an empty success. The error return is
// reserved for storage failures.
func CollectPageview(dbManager cartridge.DBManager, logger *slog.Logger, geo *geoip.Resolver, input CollectInput) (CollectResult, error) {
	payload := input.Payload

	path := payload.Path
	if path == "" && payload.URL != "" {
		if parsed, err := url.Parse(payload.URL); err == nil {
			path = parsed.Path
		}
	}

	if strings.HasPrefix(path, "/admin") {
		return rejected(RejectAdminPath), nil
	}

	if useragent.IsProbablyBot(input.UserAgent) {
		return rejected(RejectBotTraffic), nil
	}

	excluded, err := settings.IsIPExcluded(input.ClientIP)
	if err != nil {
		logger.Error("Error checking IP exclusion", slog.Any("error", err))
	} else if excluded {
		return rejected(RejectExcludedIP), nil
	}

	// A missing Origin header is trusted; beacons sent via sendBeacon or
	// same-origin fetch may omit it.
	if input.Origin != "" {
		if originURL, err := url.Parse(input.Origin); err != nil ||
			referrers.NormalizeDomain(originURL.Host) != referrers.NormalizeDomain(input.Host) {
			return rejected(RejectOriginMismatch), nil
		}
	}

	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	visitorID := payload.VisitorID
	if visitorID == "" {
		visitorID = visitors.DeriveVisitorID(input.ClientIP, input.UserAgent)
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = visitors.DeriveSessionID(visitorID, payload.IsSessionStart, receivedAt)
	}

	pageSlug := payload.PageSlug
	if pageSlug == "" {
		pageSlug = ExtractSlugFromPath(path)
	}

	classification := referrers.Classify(payload.URL, payload.Referrer, input.Host)
	deviceType, deviceOS := useragent.DetectDevice(input.UserAgent)

	event := &PageviewEvent{
		VisitorID:      visitorID,
		SessionID:      sessionID,
		IsSessionStart: payload.IsSessionStart,
		PageSlug:       pageSlug,
		PageTitle:      payload.PageTitle,
		PagePath:       path,
		RawURL:         payload.URL,
		Referrer:       payload.Referrer,
		TrafficSource:  classification.Source,
		UTMSource:      classification.UTMSource,
		UTMMedium:      classification.UTMMedium,
		UTMCampaign:    classification.UTMCampaign,
		ReferrerDomain: classification.ReferrerDomain,
		DeviceType:     deviceType,
		DeviceOS:       deviceOS,
		Country:        ResolveCountry(input.Header, payload.Language, input.ClientIP, geo),
		Timezone:       payload.Timezone,
		Language:       payload.Language,
		ScreenWidth:    payload.ScreenWidth,
		ScreenHeight:   payload.ScreenHeight,
		CreatedAt:      receivedAt,
	}

	db := dbManager.GetConnection()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(event).Error
	})
	if err != nil {
		logger.Error("Failed to store pageview event", slog.Any("error", err))
		return CollectResult{}, fmt.Errorf("failed to store pageview event: %w", err)
	}

	return accepted(event), nil
}

// ExtractSlugFromPath maps a request path to the slug used for per-page
// reporting. "/" is "home", "/pages/<slug>" collapses to the slug, anything
// else keeps its last segment. Query strings and fragments are stripped.
func ExtractSlugFromPath(path string) string {
	cleaned := path
	if idx := strings.IndexAny(cleaned, "?#"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	cleaned = strings.Trim(cleaned, "/")

	if cleaned == "" {
		return "home"
	}

	segments := strings.Split(cleaned, "/")
	if len(segments) == 2 && segments[0] == "pages" {
		return segments[1]
	}
	return segments[len(segments)-1]
}

// ResolveCountry picks a country code for the event. Proxy geo headers win;
// then the region subtag of the Accept-Language style value ("en-GB" gives
// "GB"); then a local GeoIP lookup when a database is configured.
func ResolveCountry(header func(string) string, language, clientIP string, geo *geoip.Resolver) string {
	if header != nil {
		for _, name := range countryHeaders {
			value := strings.ToUpper(strings.TrimSpace(header(name)))
			if value != "" && value != "XX" {
				return value
			}
		}
	}

	if language != "" {
		parts := strings.Split(language, "-")
		if len(parts) > 1 && parts[1] != "" {
			return strings.ToUpper(parts[1])
		}
	}

	if code := geo.CountryCode(clientIP); code != "" {
		return code
	}

	return UnknownCountry
}
