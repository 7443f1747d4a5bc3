package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"brightholme/internal/analytics"
	"brightholme/internal/timeframe"
)

// DashboardAnalyticsAction serves the dashboard report as JSON. The range
// query parameter selects the window; anything out of set silently becomes
// the 30-day default.
func DashboardAnalyticsAction(ctx *cartridge.Context) error {
	rangeDays := timeframe.NormalizeRangeDays(ctx.Query("range", "30"))

	db := ctx.DBManager.GetConnection()
	report, err := analytics.BuildDashboardReport(db, time.Now().UTC(), rangeDays)
	if err != nil {
		ctx.Logger.Error("Failed to build dashboard report", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build analytics report",
		})
	}

	return ctx.Status(http.StatusOK).JSON(report)
}
