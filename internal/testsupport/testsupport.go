package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"brightholme/internal"
	"brightholme/internal/config"
	"brightholme/internal/events"
	"brightholme/internal/leads"
	"brightholme/internal/pages"
	"brightholme/internal/settings"
)

// testDBCache caches test databases by test name so multiple setup calls
// within the same test share one database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with brightholme's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all brightholme models for migration
func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&events.PageviewEvent{},
		&leads.Lead{},
		&pages.Page{},
		&settings.Setting{},
	}
}

// SetupTestDB creates a test database with all brightholme models migrated.
// Uses a named in-memory database with cache=shared to allow multiple
// connections to share the same database within a test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	// Use root test name for caching to handle closure issues where
	// setup functions capture the outer t while t.Run has subtest t
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set BRIGHTHOLME_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	logger := GetLogger()
	dbManager := NewTestDBManager(db)

	return dbManager, logger
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}

	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// CreateMinimalTestApp creates a test Fiber app with all routes mounted
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager
	// Enable SecFetchSite validation in tests to match production behavior
	// This blocks requests without Sec-Fetch-Site header (server-to-server requests)
	cfg.EnableSecFetchSite = true
	cfg.SecFetchSiteAllowedValues = []string{"cross-site", "same-site", "same-origin"}

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

// PageviewOptions tweaks a test pageview created by CreatePageview.
type PageviewOptions struct {
	VisitorID      string
	SessionID      string
	IsSessionStart bool
	PageSlug       string
	TrafficSource  string
	ReferrerDomain string
	DeviceType     string
	DeviceOS       string
	Country        string
	Timezone       string
	CreatedAt      time.Time
}

// CreatePageview inserts a pageview row directly, bypassing the collector,
// for aggregation tests that need precise control over stored values.
func CreatePageview(t *testing.T, db *gorm.DB, opts PageviewOptions) events.PageviewEvent {
	t.Helper()

	if opts.VisitorID == "" {
		opts.VisitorID = "visitor-default"
	}
	if opts.SessionID == "" {
		opts.SessionID = "session-default"
	}
	if opts.PageSlug == "" {
		opts.PageSlug = "home"
	}
	if opts.TrafficSource == "" {
		opts.TrafficSource = "Direct"
	}
	if opts.DeviceType == "" {
		opts.DeviceType = "Desktop"
	}
	if opts.DeviceOS == "" {
		opts.DeviceOS = "Windows"
	}
	if opts.Country == "" {
		opts.Country = "GB"
	}
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = time.Now().UTC()
	}

	event := events.PageviewEvent{
		VisitorID:      opts.VisitorID,
		SessionID:      opts.SessionID,
		IsSessionStart: opts.IsSessionStart,
		PageSlug:       opts.PageSlug,
		PagePath:       "/" + opts.PageSlug,
		TrafficSource:  opts.TrafficSource,
		ReferrerDomain: opts.ReferrerDomain,
		DeviceType:     opts.DeviceType,
		DeviceOS:       opts.DeviceOS,
		Country:        opts.Country,
		Timezone:       opts.Timezone,
		CreatedAt:      opts.CreatedAt,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("testsupport: failed to create pageview: %v", err)
	}
	return event
}
