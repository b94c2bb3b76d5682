package types

import (
	"github.com/m-mizutani/goerr/v2"
)

type UserID string

func (x UserID) String() string {
	return string(x)
}

const (
	EmptyUserID UserID = ""
)

type HospitalID string

func (x HospitalID) String() string {
	return string(x)
}

const (
	EmptyHospitalID HospitalID = ""
)

// Role is the job role of a principal. Roles both gate lifecycle operations
// and determine which escalation tiers a staff member belongs to.
type Role string

const (
	RoleOperator   Role = "operator"
	RoleNurse      Role = "nurse"
	RoleDoctor     Role = "doctor"
	RoleHeadDoctor Role = "head_doctor"
	RoleAdmin      Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) Validate() error {
	switch r {
	case RoleOperator, RoleNurse, RoleDoctor, RoleHeadDoctor, RoleAdmin:
		return nil
	}
	return goerr.New("invalid role", goerr.V("role", r))
}

// IsClinical returns true for roles that respond to alerts on the floor.
func (r Role) IsClinical() bool {
	switch r {
	case RoleNurse, RoleDoctor, RoleHeadDoctor:
		return true
	}
	return false
}
