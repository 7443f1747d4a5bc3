// Package seeder fills a development database with plausible traffic so
// the dashboard has something to show. Events go through the real
// collection pipeline rather than raw inserts, so classification and
// identifier derivation get exercised too.
package seeder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"

	"brightholme/internal/events"
	"brightholme/internal/leads"
	"brightholme/internal/pkg/geoip"
)

const seedHost = "localhost"

// Seeder handles the data seeding process.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	EventCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, eventCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		EventCount: eventCount,
	}
}

// journeyTemplates are realistic paths prospective students and parents
// take through the site.
var journeyTemplates = [][]string{
	{"/", "/about", "/contact"},
	{"/", "/courses", "/pricing", "/book-a-consultation"},
	{"/", "/stem-pathways", "/study-options"},
	{"/", "/prospectus"},
	{"/courses", "/pricing", "/contact"},
	{"/", "/blogs", "/pages/a-level-math"},
	{"/fees", "/pricing", "/book-a-consultation"},
	{"/", "/reviews", "/courses"},
	{"/pages/our-mission", "/about"},
	{"/", "/courses"},
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Safari/605.1.15",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

var seedReferrers = []string{
	"",
	"",
	"https://www.google.co.uk/search",
	"https://www.google.com/search",
	"https://www.bing.com/search",
	"https://www.facebook.com/",
	"https://www.linkedin.com/feed/",
	"https://t.co/x8fj2",
	"https://www.goodschoolsguide.co.uk/review",
}

var seedCountries = []string{"GB", "GB", "GB", "GB", "US", "NG", "AE", "IN", "HK", ""}

var seedTimezones = []string{
	"Europe/London", "Europe/London", "Europe/London",
	"America/New_York", "Africa/Lagos", "Asia/Dubai", "Asia/Kolkata", "Asia/Hong_Kong",
}

// Run seeds visitor journeys and a handful of leads.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding analytics data...", slog.Int("eventCount", s.EventCount))

	geo := &geoip.Resolver{}
	eventsCreated := 0

	for eventsCreated < s.EventCount {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		journey := journeyTemplates[rand.IntN(len(journeyTemplates))]
		userAgent := userAgents[rand.IntN(len(userAgents))]
		referrer := seedReferrers[rand.IntN(len(seedReferrers))]
		country := seedCountries[rand.IntN(len(seedCountries))]
		timezone := seedTimezones[rand.IntN(len(seedTimezones))]
		clientIP := fmt.Sprintf("203.0.113.%d", rand.IntN(254)+1)

		// Spread sessions across the last 60 days so every dashboard
		// range has data on both sides of its comparison window.
		sessionStart := time.Now().UTC().
			AddDate(0, 0, -rand.IntN(60)).
			Add(-time.Duration(rand.IntN(24)) * time.Hour)

		sessionID := ""
		for i, path := range journey {
			at := sessionStart.Add(time.Duration(i) * time.Duration(30+rand.IntN(90)) * time.Second)

			input := events.CollectInput{
				Payload: events.TrackPayload{
					URL:            "https://" + seedHost + path,
					Path:           path,
					Referrer:       referrer,
					SessionID:      sessionID,
					IsSessionStart: i == 0,
					Language:       "en-GB",
					Timezone:       timezone,
				},
				ClientIP:   clientIP,
				UserAgent:  userAgent,
				Host:       seedHost,
				Header:     countryHeader(country),
				ReceivedAt: at,
			}

			result, err := events.CollectPageview(s.DBManager, s.Logger, geo, input)
			if err != nil {
				return fmt.Errorf("failed to seed pageview: %w", err)
			}
			if result.Accepted {
				sessionID = result.Event.SessionID
				eventsCreated++
			}

			// Only the first page of a journey carries the external
			// referrer.
			referrer = ""
		}
	}

	if err := s.seedLeads(); err != nil {
		return err
	}

	s.Logger.Info("Seeding completed",
		slog.Int("events", eventsCreated),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func countryHeader(country string) func(string) string {
	return func(name string) string {
		if name == "CF-IPCountry" {
			return country
		}
		return ""
	}
}

func (s *Seeder) seedLeads() error {
	seedInputs := []leads.CreateLeadInput{
		{LeadType: leads.TypeContact, FullName: "Amina Hassan", Email: "amina.hassan@example.com", Phone: "+44 7700 900123", Message: "Interested in A Level Maths entry requirements.", Source: "/contact"},
		{LeadType: leads.TypeContact, FullName: "Daniel Okafor", Email: "d.okafor@example.com", Message: "Requesting the prospectus for September.", Source: "/prospectus"},
		{LeadType: leads.TypeSubscription, Email: "parent.news@example.com", Source: "/"},
		{LeadType: leads.TypeSubscription, Email: "y12.student@example.com", Source: "/blogs"},
		{LeadType: leads.TypeConsultation, FullName: "Sofia Petrova", Email: "s.petrova@example.com", Phone: "+44 7700 900456", Source: "/book-a-consultation"},
	}

	for _, input := range seedInputs {
		if _, err := leads.CreateLead(s.DBManager, s.Logger, input); err != nil {
			return fmt.Errorf("failed to seed lead: %w", err)
		}
	}
	return nil
}
