package helpers

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/paylens/analytics/internal/auth"
	"github.com/paylens/analytics/internal/config"
	"github.com/paylens/analytics/internal/query"
)

// ScopeFlags selects the tenant scope of a command, either from a signed
// token or from explicit ids.
type ScopeFlags struct {
	Token     string
	Org       string
	Merchants []string
	Profiles  []string
}

// AddFlags adds the scope flags to a FlagSet. The --token flag is only added
// when withToken is set.
func (f *ScopeFlags) AddFlags(flags *pflag.FlagSet, withToken bool) {
	if withToken {
		flags.StringVar(&f.Token, "token", "", "Tenant-scope token (JWT)")
	}
	flags.StringVar(&f.Org, "org", "", "Organization id")
	flags.StringSliceVar(&f.Merchants, "merchant", nil, "Merchant ids within --org")
	flags.StringSliceVar(&f.Profiles, "profile", nil, "Profile ids of a single --merchant")
}

// Explicit returns the scope named by --org, --merchant and --profile.
func (f *ScopeFlags) Explicit() (query.AuthInfo, error) {
	claims := auth.Claims{OrgID: f.Org, MerchantIDs: f.Merchants, ProfileIDs: f.Profiles}
	return claims.AuthInfo()
}

// Resolve returns the scope of the command. A token is verified with cfg.
func (f *ScopeFlags) Resolve(cfg config.AuthConfig) (query.AuthInfo, error) {
	explicit := f.Org != "" || len(f.Merchants) > 0 || len(f.Profiles) > 0

	switch {
	case f.Token != "" && explicit:
		return nil, fmt.Errorf("use either --token or --org/--merchant/--profile, not both")
	case f.Token != "":
		tm, err := auth.NewTokenManager(cfg)
		if err != nil {
			return nil, err
		}
		return tm.Scope(f.Token)
	case explicit:
		return f.Explicit()
	default:
		return nil, fmt.Errorf("a tenant scope is required: pass --token or --org")
	}
}
