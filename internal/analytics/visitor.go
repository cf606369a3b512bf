package analytics

import (
	"BioLink-Backend/internal/domain"
	"net/url"
	"strings"
)

const (
	SourceDirect  = "direct"
	SourceUnknown = "unknown"
)

// referrerSources maps hostname fragments to a normalized source. Order is
// significant: the first matching fragment wins.
var referrerSources = []struct {
	fragment string
	source   string
}{
	{"google", "google"},
	{"facebook", "facebook"},
	{"fb.com", "facebook"},
	{"fb.me", "facebook"},
	{"instagram", "instagram"},
	{"twitter", "twitter"},
	{"t.co", "twitter"},
	{"x.com", "twitter"},
	{"tiktok", "tiktok"},
	{"youtube", "youtube"},
	{"youtu.be", "youtube"},
	{"linkedin", "linkedin"},
	{"reddit", "reddit"},
}

// ParseReferrer normalizes a referrer URL. An empty referrer is "direct";
// one without a parsable hostname is "unknown"; an unlisted host is the
// hostname itself without a leading "www.".
func ParseReferrer(referrer string) *domain.ReferrerInfo {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return &domain.ReferrerInfo{Source: SourceDirect}
	}

	info := &domain.ReferrerInfo{Source: SourceUnknown, URL: referrer}

	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return info
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	info.Hostname = host
	info.Source = host
	for _, rs := range referrerSources {
		if hostMatches(host, rs.fragment) {
			info.Source = rs.source
			break
		}
	}
	return info
}

// hostMatches treats fragments containing a dot as domains, so "t.co" does
// not match "reddit.com", and bare words as substrings.
func hostMatches(host, fragment string) bool {
	if strings.Contains(fragment, ".") {
		return host == fragment || strings.HasSuffix(host, "."+fragment)
	}
	return strings.Contains(host, fragment)
}

// NormalizeEventType coerces unknown values to a view. The second result is
// false when coercion happened.
func NormalizeEventType(raw string) (domain.EventType, bool) {
	t := domain.EventType(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t, true
	}
	return domain.EventTypeView, false
}

// buildLocation returns nil when no location field was supplied.
func buildLocation(raw RawEvent) *domain.LocationInfo {
	loc := domain.LocationInfo{
		Country:  strings.TrimSpace(raw.Country),
		City:     strings.TrimSpace(raw.City),
		Region:   strings.TrimSpace(raw.Region),
		Timezone: strings.TrimSpace(raw.Timezone),
	}
	if loc == (domain.LocationInfo{}) {
		return nil
	}
	return &loc
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
