package query

import "fmt"

// QueryFilter is implemented by request parts that translate into filter
// clauses on a builder.
type QueryFilter[D Dialect] interface {
	SetFilterClause(b *Builder[D]) error
}

type filterFunc[D Dialect] func(b *Builder[D]) error

func (f filterFunc[D]) SetFilterClause(b *Builder[D]) error { return f(b) }

// ApplyFilters applies filters in order and stops at the first failure.
func ApplyFilters[D Dialect](b *Builder[D], filters ...QueryFilter[D]) error {
	for _, f := range filters {
		if err := f.SetFilterClause(b); err != nil {
			return err
		}
	}
	return nil
}

// ScopeFilter adapts auth to a QueryFilter. Pass it first to ApplyFilters.
func ScopeFilter[D Dialect](auth AuthInfo) QueryFilter[D] {
	return filterFunc[D](func(b *Builder[D]) error { return ApplyScope(b, auth) })
}

// AuthInfo is the tenant scope of a request: one of OrgLevel, MerchantLevel
// or ProfileLevel.
type AuthInfo interface {
	// Organization returns the organization every scope is bound to.
	Organization() string
	authInfo()
}

// OrgLevel grants access to every merchant of an organization.
type OrgLevel struct {
	OrgID string
}

// MerchantLevel grants access to a set of merchants of an organization.
type MerchantLevel struct {
	OrgID       string
	MerchantIDs []string
}

// ProfileLevel grants access to a set of profiles of a single merchant.
type ProfileLevel struct {
	OrgID      string
	MerchantID string
	ProfileIDs []string
}

func (OrgLevel) authInfo()      {}
func (MerchantLevel) authInfo() {}
func (ProfileLevel) authInfo()  {}

func (s OrgLevel) Organization() string      { return s.OrgID }
func (s MerchantLevel) Organization() string { return s.OrgID }
func (s ProfileLevel) Organization() string  { return s.OrgID }

// Scope column names.
const (
	OrganizationIDColumn = "organization_id"
	MerchantIDColumn     = "merchant_id"
	ProfileIDColumn      = "profile_id"
)

// ApplyScope adds the tenant filters of auth to b. It must run before any
// other filter is added so business filters only ever narrow the scope.
// A scope missing any of its ids is rejected before any filter is added, so a
// failed call never leaves a wider scope on b.
func ApplyScope[D Dialect](b *Builder[D], auth AuthInfo) error {
	if err := validateScope(auth); err != nil {
		return err
	}

	switch s := auth.(type) {
	case OrgLevel:
		return orgFilter(b, s.OrgID)
	case MerchantLevel:
		if err := orgFilter(b, s.OrgID); err != nil {
			return err
		}
		if err := b.AddFilterInRangeClause(Column(MerchantIDColumn), Texts(s.MerchantIDs...)); err != nil {
			return fmt.Errorf("error adding merchant_id filter: %w", err)
		}
		return nil
	case ProfileLevel:
		if err := orgFilter(b, s.OrgID); err != nil {
			return err
		}
		if err := b.AddFilterClause(Column(MerchantIDColumn), Text(s.MerchantID)); err != nil {
			return fmt.Errorf("error adding merchant_id filter: %w", err)
		}
		if err := b.AddFilterInRangeClause(Column(ProfileIDColumn), Texts(s.ProfileIDs...)); err != nil {
			return fmt.Errorf("error adding profile_id filter: %w", err)
		}
		return nil
	case nil:
		return &InvalidQueryError{Reason: "missing tenant scope"}
	default:
		return &NotImplementedError{Feature: fmt.Sprintf("tenant scope %T", auth)}
	}
}

func validateScope(auth AuthInfo) error {
	var missing string
	switch s := auth.(type) {
	case OrgLevel:
		if s.OrgID == "" {
			missing = OrganizationIDColumn
		}
	case MerchantLevel:
		switch {
		case s.OrgID == "":
			missing = OrganizationIDColumn
		case len(s.MerchantIDs) == 0:
			missing = MerchantIDColumn
		}
	case ProfileLevel:
		switch {
		case s.OrgID == "":
			missing = OrganizationIDColumn
		case s.MerchantID == "":
			missing = MerchantIDColumn
		case len(s.ProfileIDs) == 0:
			missing = ProfileIDColumn
		}
	}
	if missing != "" {
		return &InvalidQueryError{Reason: fmt.Sprintf("tenant scope %T without %s", auth, missing)}
	}
	return nil
}

func orgFilter[D Dialect](b *Builder[D], orgID string) error {
	if err := b.AddFilterClause(Column(OrganizationIDColumn), Text(orgID)); err != nil {
		return fmt.Errorf("error adding organization_id filter: %w", err)
	}
	return nil
}
