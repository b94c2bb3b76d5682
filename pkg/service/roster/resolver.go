package roster

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
)

// Resolver maps an escalation tier to the on-duty staff who should hear about
// it. Tier 1 reaches nurses, tier 2 doctors, tier 3 the head doctor, and
// anything broader reaches every clinical role on duty.
type Resolver struct {
	repo      interfaces.Repository
	tierRoles map[int][]types.Role
}

var defaultTierRoles = map[int][]types.Role{
	1: {types.RoleNurse},
	2: {types.RoleDoctor},
	3: {types.RoleHeadDoctor},
	4: {types.RoleNurse, types.RoleDoctor, types.RoleHeadDoctor},
}

type Option func(*Resolver)

// WithTierRoles overrides the tier-to-role table, e.g. for hospitals that
// route tier 2 to both doctors and charge nurses.
func WithTierRoles(tierRoles map[int][]types.Role) Option {
	return func(r *Resolver) {
		if len(tierRoles) > 0 {
			r.tierRoles = tierRoles
		}
	}
}

func New(repo interfaces.Repository, opts ...Option) *Resolver {
	r := &Resolver{
		repo:      repo,
		tierRoles: defaultTierRoles,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the on-duty members for the tier. Tiers past the table use
// the broadest configured tier. An empty result is not an error; the caller
// decides how to treat a staffing gap.
func (r *Resolver) Resolve(ctx context.Context, hospitalID types.HospitalID, tier int) (staff.Members, error) {
	if tier < 1 {
		return nil, goerr.New("escalation tier must be positive", goerr.V("tier", tier))
	}

	roles, ok := r.tierRoles[tier]
	if !ok {
		roles = r.tierRoles[r.broadestTier()]
	}

	members, err := r.repo.ListOnDutyStaff(ctx, hospitalID, roles)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list on-duty staff",
			goerr.V("hospital_id", hospitalID), goerr.V("tier", tier))
	}
	return members, nil
}

func (r *Resolver) broadestTier() int {
	broadest := 0
	for tier := range r.tierRoles {
		if tier > broadest {
			broadest = tier
		}
	}
	return broadest
}
