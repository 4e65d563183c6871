// Package auth verifies tenant-scope tokens and turns their claims into the
// query scope every analytics query is filtered by.
package auth

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"

	"github.com/paylens/analytics/internal/query"
)

// ErrInvalidScope is returned when token claims do not describe a scope.
var ErrInvalidScope = errors.New("invalid tenant scope")

// Claims contains the JWT claims of a tenant-scope token.
type Claims struct {
	OrgID       string   `json:"org_id"`
	MerchantID  string   `json:"merchant_id,omitempty"`
	MerchantIDs []string `json:"merchant_ids,omitempty"`
	ProfileIDs  []string `json:"profile_ids,omitempty"`

	// Level pins the scope level. When empty it is inferred from the most
	// specific ids present.
	Level Level `json:"level,omitempty"`

	jwt.RegisteredClaims
}

// ClaimsFor returns the scope claims of info, without registered claims.
func ClaimsFor(info query.AuthInfo) (*Claims, error) {
	switch s := info.(type) {
	case query.OrgLevel:
		return &Claims{OrgID: s.OrgID, Level: LevelOrganization}, nil
	case query.MerchantLevel:
		return &Claims{OrgID: s.OrgID, MerchantIDs: slices.Clone(s.MerchantIDs), Level: LevelMerchant}, nil
	case query.ProfileLevel:
		return &Claims{
			OrgID:      s.OrgID,
			MerchantID: s.MerchantID,
			ProfileIDs: slices.Clone(s.ProfileIDs),
			Level:      LevelProfile,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported scope %T", ErrInvalidScope, info)
	}
}

// AuthInfo converts the claims to a query scope.
func (c *Claims) AuthInfo() (query.AuthInfo, error) {
	if c.OrgID == "" {
		return nil, fmt.Errorf("%w: missing org_id", ErrInvalidScope)
	}

	level := c.Level
	if level == "" {
		level = c.inferLevel()
	}

	switch level {
	case LevelOrganization:
		return query.OrgLevel{OrgID: c.OrgID}, nil

	case LevelMerchant:
		ids := c.MerchantIDs
		if len(ids) == 0 && c.MerchantID != "" {
			ids = []string{c.MerchantID}
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: merchant scope without merchant ids", ErrInvalidScope)
		}
		return query.MerchantLevel{OrgID: c.OrgID, MerchantIDs: slices.Clone(ids)}, nil

	case LevelProfile:
		merchantID := c.MerchantID
		if merchantID == "" && len(c.MerchantIDs) == 1 {
			merchantID = c.MerchantIDs[0]
		}
		if merchantID == "" {
			return nil, fmt.Errorf("%w: profile scope without a single merchant_id", ErrInvalidScope)
		}
		if len(c.ProfileIDs) == 0 {
			return nil, fmt.Errorf("%w: profile scope without profile ids", ErrInvalidScope)
		}
		return query.ProfileLevel{OrgID: c.OrgID, MerchantID: merchantID, ProfileIDs: slices.Clone(c.ProfileIDs)}, nil

	default:
		return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidScope, c.Level)
	}
}

func (c *Claims) inferLevel() Level {
	switch {
	case len(c.ProfileIDs) > 0:
		return LevelProfile
	case len(c.MerchantIDs) > 0 || c.MerchantID != "":
		return LevelMerchant
	default:
		return LevelOrganization
	}
}
