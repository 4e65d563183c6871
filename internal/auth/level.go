package auth

import "github.com/paylens/analytics/internal/query"

// Level is the tenant scope a token grants.
type Level string

const (
	// LevelOrganization grants every merchant of one organization.
	LevelOrganization Level = "organization"

	// LevelMerchant grants a set of merchants within one organization.
	LevelMerchant Level = "merchant"

	// LevelProfile grants a set of profiles of a single merchant.
	LevelProfile Level = "profile"
)

// AllLevels returns all defined levels, widest first.
func AllLevels() []Level {
	return []Level{
		LevelOrganization,
		LevelMerchant,
		LevelProfile,
	}
}

// ParseLevel converts a string to a Level.
// Returns empty string if the level is invalid.
func ParseLevel(s string) Level {
	switch s {
	case "organization", "org":
		return LevelOrganization
	case "merchant":
		return LevelMerchant
	case "profile":
		return LevelProfile
	default:
		return ""
	}
}

// LevelOf reports the level of a scope.
func LevelOf(info query.AuthInfo) Level {
	switch info.(type) {
	case query.OrgLevel:
		return LevelOrganization
	case query.MerchantLevel:
		return LevelMerchant
	case query.ProfileLevel:
		return LevelProfile
	default:
		return ""
	}
}
