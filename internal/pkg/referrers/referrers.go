// Package referrers attributes a pageview to a traffic source from its UTM
// parameters and HTTP referrer. The decision tree is strict precedence:
// UTM medium > internal referrer > social > organic search > generic
// referral > direct. There is no backtracking.
package referrers

import (
	"embed"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Traffic source labels for the closed part of the category set. An
// unrecognized utm_medium produces a title-cased copy of the raw medium
// instead of one of these.
const (
	SourceDirect        = "Direct"
	SourceEmail         = "Email"
	SourcePaidSearch    = "Paid Search"
	SourcePaidSocial    = "Paid Social"
	SourceDisplay       = "Display"
	SourceSocial        = "Social"
	SourceOrganicSearch = "Organic Search"
	SourceReferral      = "Referral"
	SourceInternal      = "Internal"
)

//go:embed database/domains.yml
var databaseFiles embed.FS

type domainDatabase struct {
	Social []string `yaml:"social"`
	Search []string `yaml:"search"`
}

var (
	domains     domainDatabase
	domainsOnce sync.Once
)

func getDomains() *domainDatabase {
	domainsOnce.Do(func() {
		data, err := databaseFiles.ReadFile("database/domains.yml")
		if err != nil {
			return
		}
		if err := yaml.Unmarshal(data, &domains); err != nil {
			domains = domainDatabase{}
		}
	})
	return &domains
}

// Classification is the result of attributing a single pageview.
type Classification struct {
	Source         string
	UTMSource      string
	UTMMedium      string
	UTMCampaign    string
	ReferrerDomain string
}

// Classify attributes a pageview given the visited URL (for UTM query
// parameters), the HTTP referrer, and the host serving the request.
func Classify(rawURL, referrer, host string) Classification {
	c := Classification{Source: SourceDirect}

	if rawURL != "" {
		if parsed, err := url.Parse(rawURL); err == nil {
			params := parsed.Query()
			c.UTMSource = params.Get("utm_source")
			c.UTMMedium = params.Get("utm_medium")
			c.UTMCampaign = params.Get("utm_campaign")
		}
	}

	if referrer != "" {
		if parsed, err := url.Parse(referrer); err == nil {
			c.ReferrerDomain = NormalizeDomain(parsed.Host)
		}
	}

	normalizedHost := NormalizeDomain(host)

	switch {
	case c.UTMMedium != "":
		c.Source = sourceFromMedium(c.UTMMedium)
	case c.ReferrerDomain != "":
		c.Source = sourceFromReferrerDomain(c.ReferrerDomain, normalizedHost)
	default:
		c.Source = SourceDirect
	}

	return c
}

// NormalizeDomain lowercases a hostname and strips a leading "www." and a
// trailing port so that "www.example.com:443" and "example.com" compare equal.
func NormalizeDomain(host string) string {
	domain := strings.ToLower(host)
	domain = strings.TrimPrefix(domain, "www.")
	if idx := strings.Index(domain, ":"); idx >= 0 {
		domain = domain[:idx]
	}
	return domain
}

func sourceFromMedium(medium string) string {
	switch strings.ToLower(medium) {
	case "email", "newsletter":
		return SourceEmail
	case "cpc", "ppc", "paid", "paid-search":
		return SourcePaidSearch
	case "social", "paid-social":
		return SourcePaidSocial
	case "display", "banner":
		return SourceDisplay
	default:
		return cases.Title(language.English).String(strings.ToLower(medium))
	}
}

func sourceFromReferrerDomain(referrerDomain, host string) string {
	db := getDomains()

	if host != "" && strings.HasSuffix(referrerDomain, host) {
		return SourceInternal
	}
	for _, token := range db.Social {
		if strings.Contains(referrerDomain, token) {
			return SourceSocial
		}
	}
	for _, token := range db.Search {
		if strings.Contains(referrerDomain, token) {
			return SourceOrganicSearch
		}
	}
	return SourceReferral
}
