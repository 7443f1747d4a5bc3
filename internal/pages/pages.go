// Package pages keeps the registry of public site pages. The dashboard
// uses it to turn stored page slugs back into display names and URLs.
package pages

import (
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Page is one registered public page.
type Page struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	Slug            string `gorm:"uniqueIndex;not null"`
	Name            string `gorm:"not null"`
	NavOrder        int
	NavDisplay      string
	SEOTitle        string
	MetaDescription string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// pathOverrides maps slugs whose public URL is not simply "/<slug>".
var pathOverrides = map[string]string{
	"home":     "/",
	"policies": "/policies",
}

// defaultSeeds are the pages every fresh install knows about. Slugs match
// what the tracking snippet derives from request paths.
var defaultSeeds = []Page{
	{Slug: "home", Name: "Homepage", NavOrder: 10, NavDisplay: "hidden"},
	{Slug: "about", Name: "About the College", NavOrder: 20, NavDisplay: "dropdown"},
	{Slug: "stem-pathways", Name: "STEM Pathways", NavOrder: 30, NavDisplay: "dropdown"},
	{Slug: "study-options", Name: "Study Options", NavOrder: 40, NavDisplay: "dropdown"},
	{Slug: "prospectus", Name: "Prospectus", NavOrder: 45, NavDisplay: "dropdown"},
	{Slug: "fees", Name: "Fees & Finance", NavOrder: 50, NavDisplay: "dropdown"},
	{Slug: "courses", Name: "Courses", NavOrder: 60, NavDisplay: "top"},
	{Slug: "pricing", Name: "Pricing", NavOrder: 70, NavDisplay: "top"},
	{Slug: "book-a-consultation", Name: "Book a Consultation", NavOrder: 80, NavDisplay: "top"},
	{Slug: "blogs", Name: "Blog", NavOrder: 90, NavDisplay: "top"},
	{Slug: "reviews", Name: "Reviews", NavOrder: 100, NavDisplay: "dropdown"},
	{Slug: "contact", Name: "Contact", NavOrder: 110, NavDisplay: "top"},
	{Slug: "policies", Name: "Policies", NavOrder: 120, NavDisplay: "footer"},
}

// SeedDefaultPages inserts any missing default pages. Existing rows are
// left untouched so admin edits survive restarts.
func SeedDefaultPages(logger *slog.Logger, db *gorm.DB) error {
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		for _, seed := range defaultSeeds {
			var count int64
			if err := tx.Model(&Page{}).Where("slug = ?", seed.Slug).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check page %s: %w", seed.Slug, err)
			}
			if count > 0 {
				continue
			}
			page := seed
			now := time.Now().UTC()
			page.CreatedAt = now
			page.UpdatedAt = now
			if err := tx.Create(&page).Error; err != nil {
				return fmt.Errorf("failed to seed page %s: %w", seed.Slug, err)
			}
		}
		return nil
	})
}

// Registry is a read-only slug lookup loaded once per report build.
type Registry struct {
	bySlug map[string]Page
}

// LoadRegistry reads all registered pages into memory.
func LoadRegistry(db *gorm.DB) (*Registry, error) {
	var all []Page
	if err := db.Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}

	bySlug := make(map[string]Page, len(all))
	for _, page := range all {
		bySlug[page.Slug] = page
	}
	return &Registry{bySlug: bySlug}, nil
}

// DisplayName resolves a human-readable title for a slug. A stored page
// title from the event wins, then the registry name, then a capitalized
// slug, then the raw path.
func (r *Registry) DisplayName(slug, pageTitle, path string) string {
	if pageTitle != "" {
		return pageTitle
	}
	if page, ok := r.bySlug[slug]; ok && page.Name != "" {
		return page.Name
	}
	if slug != "" {
		return capitalize(slug)
	}
	if path != "" {
		return path
	}
	return "Unknown"
}

// PublicURL resolves the public URL for a slug, falling back to the stored
// request path when the slug is unknown.
func (r *Registry) PublicURL(slug, path string) string {
	if slug != "" {
		if override, ok := pathOverrides[slug]; ok {
			return override
		}
		if _, ok := r.bySlug[slug]; ok {
			return "/" + slug
		}
	}
	if path != "" {
		return path
	}
	return "#"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
