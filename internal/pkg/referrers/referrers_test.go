package referrers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUTMMediumPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		expected string
	}{
		{"email medium", "https://example.org/open-day?utm_source=mailer&utm_medium=email", SourceEmail},
		{"newsletter medium", "https://example.org/?utm_medium=newsletter", SourceEmail},
		{"cpc medium", "https://example.org/?utm_medium=cpc", SourcePaidSearch},
		{"paid-search medium", "https://example.org/?utm_medium=paid-search", SourcePaidSearch},
		{"social medium", "https://example.org/?utm_medium=social", SourcePaidSocial},
		{"paid-social medium", "https://example.org/?utm_medium=paid-social", SourcePaidSocial},
		{"banner medium", "https://example.org/?utm_medium=banner", SourceDisplay},
		{"unknown medium is title cased", "https://example.org/?utm_medium=partner-promo", "Partner-Promo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.rawURL, "https://www.google.com/search", "example.org")
			assert.Equal(t, tt.expected, c.Source, "UTM medium must win over the referrer")
		})
	}
}

func TestClassifyUTMFieldsCaptured(t *testing.T) {
	c := Classify("https://example.org/apply?utm_source=mailer&utm_medium=email&utm_campaign=spring-open-day", "", "example.org")

	assert.Equal(t, "mailer", c.UTMSource)
	assert.Equal(t, "email", c.UTMMedium)
	assert.Equal(t, "spring-open-day", c.UTMCampaign)
	assert.Equal(t, SourceEmail, c.Source)
}

func TestClassifyReferrerDomains(t *testing.T) {
	tests := []struct {
		name           string
		referrer       string
		expectedSource string
		expectedDomain string
	}{
		{"internal referrer", "https://www.example.org/courses", SourceInternal, "example.org"},
		{"facebook", "https://www.facebook.com/groups/parents", SourceSocial, "facebook.com"},
		{"mobile facebook", "https://m.facebook.com/", SourceSocial, "m.facebook.com"},
		{"twitter shortener", "https://t.co/abc123", SourceSocial, "t.co"},
		{"google uk", "https://www.google.co.uk/search?q=sixth+form", SourceOrganicSearch, "google.co.uk"},
		{"bing", "https://www.bing.com/search", SourceOrganicSearch, "bing.com"},
		{"duckduckgo", "https://duckduckgo.com/", SourceOrganicSearch, "duckduckgo.com"},
		{"plain referral", "https://www.localnews.co.uk/article", SourceReferral, "localnews.co.uk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify("https://example.org/", tt.referrer, "example.org")
			assert.Equal(t, tt.expectedSource, c.Source)
			assert.Equal(t, tt.expectedDomain, c.ReferrerDomain)
		})
	}
}

func TestClassifyDirect(t *testing.T) {
	c := Classify("https://example.org/", "", "example.org")
	assert.Equal(t, SourceDirect, c.Source)
	assert.Empty(t, c.ReferrerDomain)
}

func TestClassifyEmptyInputs(t *testing.T) {
	c := Classify("", "", "")
	assert.Equal(t, SourceDirect, c.Source)
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "example.org", NormalizeDomain("WWW.Example.org"))
	assert.Equal(t, "example.org", NormalizeDomain("example.org:8080"))
	assert.Equal(t, "example.org", NormalizeDomain("www.example.org:443"))
	assert.Equal(t, "", NormalizeDomain(""))
}
