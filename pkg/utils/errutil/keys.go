package errutil

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
)

// Typed error value keys used across the repository and engine layers.
var (
	AlertIDKey    = goerr.NewTypedKey[types.AlertID]("alert_id")
	HospitalIDKey = goerr.NewTypedKey[types.HospitalID]("hospital_id")
	UserIDKey     = goerr.NewTypedKey[types.UserID]("user_id")
	TierKey       = goerr.NewTypedKey[int]("tier")
	StatusKey     = goerr.NewTypedKey[types.AlertStatus]("status")
)
