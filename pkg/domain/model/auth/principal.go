package auth

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
)

// Principal is the authenticated caller as decoded from the identity
// provider's token. The identity provider itself is out of scope; the service
// only verifies tokens and reads these three claims.
type Principal struct {
	ID         types.UserID     `json:"id"`
	Role       types.Role       `json:"role"`
	HospitalID types.HospitalID `json:"hospital_id"`
}

func (p *Principal) Validate() error {
	if p.ID == types.EmptyUserID {
		return goerr.New("principal ID is required")
	}
	return p.Role.Validate()
}

// CanCreateAlert: operators raise alerts; admins can for drills.
func (p *Principal) CanCreateAlert() bool {
	return p.Role == types.RoleOperator || p.Role == types.RoleAdmin
}

// CanAcknowledge requires a clinical role scoped to the alert's hospital.
func (p *Principal) CanAcknowledge(a *alert.Alert) bool {
	if !p.Role.IsClinical() && p.Role != types.RoleAdmin {
		return false
	}
	return p.inScope(a.HospitalID)
}

// CanResolve has the same audience as acknowledgment.
func (p *Principal) CanResolve(a *alert.Alert) bool {
	return p.CanAcknowledge(a)
}

// CanManuallyEscalate is restricted to head doctors and admins.
func (p *Principal) CanManuallyEscalate(a *alert.Alert) bool {
	if p.Role != types.RoleHeadDoctor && p.Role != types.RoleAdmin {
		return false
	}
	return p.inScope(a.HospitalID)
}

// CanManageRoster covers duty toggles and staff upserts.
func (p *Principal) CanManageRoster() bool {
	return p.Role == types.RoleHeadDoctor || p.Role == types.RoleAdmin
}

// CanViewAlerts: every authenticated role in the hospital can read.
func (p *Principal) CanViewAlerts(hospitalID types.HospitalID) bool {
	return p.inScope(hospitalID)
}

func (p *Principal) inScope(hospitalID types.HospitalID) bool {
	if p.Role == types.RoleAdmin {
		return true
	}
	return p.HospitalID == hospitalID
}
