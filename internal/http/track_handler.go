// Package http contains the route handlers. Handlers stay thin: parse the
// request, call into the domain packages, shape the response.
package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"

	"brightholme/internal/config"
	"brightholme/internal/events"
	"brightholme/internal/pkg/geoip"
)

var (
	geoResolver     *geoip.Resolver
	geoResolverOnce sync.Once
)

func getGeoResolver(logger *slog.Logger) *geoip.Resolver {
	geoResolverOnce.Do(func() {
		cfg := config.GetConfig()
		resolver, err := geoip.NewResolver(cfg.GeoDBPath)
		if err != nil {
			logger.Warn("GeoIP database unavailable, country lookups disabled",
				slog.String("path", cfg.GeoDBPath), slog.Any("error", err))
			resolver = &geoip.Resolver{}
		}
		geoResolver = resolver
	})
	return geoResolver
}

// TrackPageviewAction ingests one pageview beacon. The response is always
// 204 No Content whether the event was stored or dropped: the tracking
// snippet must never learn anything from this endpoint, and retries on
// non-2xx would only duplicate traffic. Only a storage failure is a 500.
func TrackPageviewAction(ctx *cartridge.Context) error {
	var payload events.TrackPayload
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		ctx.Logger.Debug("Ignoring unparseable tracking payload", slog.Any("error", err))
		return ctx.SendStatus(http.StatusNoContent)
	}

	userAgent := ctx.Get("User-Agent")
	if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
		userAgent = forwardedUA
	}

	if payload.Referrer == "" {
		payload.Referrer = ctx.Get("Referer")
	}

	input := events.CollectInput{
		Payload:    payload,
		ClientIP:   getClientIP(ctx.Ctx),
		UserAgent:  userAgent,
		Origin:     ctx.Get("Origin"),
		Host:       ctx.Ctx.Hostname(),
		Header:     func(name string) string { return ctx.Get(name) },
		ReceivedAt: time.Now().UTC(),
	}

	result, err := events.CollectPageview(ctx.DBManager, ctx.Logger, getGeoResolver(ctx.Logger), input)
	if err != nil {
		ctx.Logger.Error("Failed to collect pageview", slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	if !result.Accepted {
		ctx.Logger.Debug("Dropped pageview", slog.String("reason", string(result.Reason)))
	}

	return ctx.SendStatus(http.StatusNoContent)
}
