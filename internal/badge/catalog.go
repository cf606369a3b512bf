package badge

import (
	"BioLink-Backend/internal/domain"

	"github.com/google/uuid"
)

// catalogNamespace derives stable badge IDs from their slugs, so reseeding
// never duplicates an entry.
var catalogNamespace = uuid.MustParse("6f1c7a52-3f0e-4c59-9d1e-0b7f2f6c8a41")

// CatalogID returns the badge ID for a catalog slug.
func CatalogID(slug string) string {
	return uuid.NewSHA1(catalogNamespace, []byte(slug)).String()
}

type catalogEntry struct {
	slug        string
	name        string
	description string
	icon        string
	category    domain.BadgeCategory
	criteria    domain.CriteriaType
	target      int64
}

var defaultCatalog = []catalogEntry{
	{"views_10", "First Fans", "Reach 10 profile views", "eye", domain.CategoryViews, domain.CriteriaProfileViews, 10},
	{"views_100", "Rising Star", "Reach 100 profile views", "star", domain.CategoryViews, domain.CriteriaProfileViews, 100},
	{"views_1000", "Crowd Puller", "Reach 1,000 profile views", "users", domain.CategoryViews, domain.CriteriaProfileViews, 1000},
	{"views_10000", "Headliner", "Reach 10,000 profile views", "crown", domain.CategoryViews, domain.CriteriaProfileViews, 10000},

	{"clicks_10", "Clicked", "Get 10 link clicks", "mouse-pointer", domain.CategoryClicks, domain.CriteriaLinkClicks, 10},
	{"clicks_100", "Traffic Driver", "Get 100 link clicks", "trending-up", domain.CategoryClicks, domain.CriteriaLinkClicks, 100},
	{"clicks_1000", "Click Magnet", "Get 1,000 link clicks", "zap", domain.CategoryClicks, domain.CriteriaLinkClicks, 1000},

	{"links_1", "First Link", "Add your first link", "link", domain.CategoryAchievements, domain.CriteriaLinksCreated, 1},
	{"links_5", "Curator", "Add 5 links", "list", domain.CategoryAchievements, domain.CriteriaLinksCreated, 5},
	{"links_10", "Link Collector", "Add 10 links", "layers", domain.CategoryAchievements, domain.CriteriaLinksCreated, 10},
	{"visitors_50", "Community", "Reach 50 unique visitors in 30 days", "user-check", domain.CategoryAchievements, domain.CriteriaUniqueVisitors, 50},
	{"visitors_500", "Audience", "Reach 500 unique visitors in 30 days", "globe", domain.CategoryAchievements, domain.CriteriaUniqueVisitors, 500},
	{"countries_5", "Globetrotter", "Get visitors from 5 countries in 30 days", "map", domain.CategoryAchievements, domain.CriteriaUniqueCountries, 5},
	{"countries_20", "World Wide", "Get visitors from 20 countries in 30 days", "map-pin", domain.CategoryAchievements, domain.CriteriaUniqueCountries, 20},
	{"shares_10", "Word of Mouth", "Have your profile shared 10 times", "share-2", domain.CategoryAchievements, domain.CriteriaProfileShares, 10},

	{"early_adopter", "Early Adopter", "Joined during the beta", "award", domain.CategorySpecial, "", 1},
}

// DefaultCatalog returns the seeded achievement definitions.
func DefaultCatalog() []domain.Badge {
	out := make([]domain.Badge, 0, len(defaultCatalog))
	for _, e := range defaultCatalog {
		out = append(out, domain.Badge{
			ID:           CatalogID(e.slug),
			Name:         e.name,
			Description:  e.description,
			Icon:         e.icon,
			Category:     e.category,
			CriteriaType: e.criteria,
			TargetValue:  e.target,
			IsActive:     true,
		})
	}
	return out
}
