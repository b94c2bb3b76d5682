package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/auth"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/errutil"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

// CreateAlert validates the input, persists the alert scoped to the
// principal's hospital, and arms tier-1 escalation.
func (u *UseCases) CreateAlert(ctx context.Context, p *auth.Principal, input alert.CreateInput) (*alert.Alert, error) {
	if err := p.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid principal", goerr.T(errs.TagUnauthorized))
	}
	if !p.CanCreateAlert() {
		return nil, goerr.New("role cannot create alerts",
			goerr.T(errs.TagForbidden), goerr.TV(errutil.UserIDKey, p.ID))
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	a := alert.New(ctx, p.HospitalID, p.ID, input)
	if err := u.repo.CreateAlert(ctx, a); err != nil {
		return nil, err
	}
	if err := u.engine.StartEscalation(ctx, &a); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("alert created",
		"alert_id", a.ID, "hospital_id", a.HospitalID,
		"room", a.RoomNumber, "type", a.Type, "urgency", int(a.Urgency))
	return &a, nil
}

func (u *UseCases) AcknowledgeAlert(ctx context.Context, p *auth.Principal, alertID types.AlertID, note string) (*alert.Alert, error) {
	a, err := u.repo.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !p.CanAcknowledge(a) {
		return nil, goerr.New("role cannot acknowledge this alert",
			goerr.T(errs.TagForbidden),
			goerr.TV(errutil.UserIDKey, p.ID),
			goerr.TV(errutil.AlertIDKey, alertID),
		)
	}
	return u.engine.Acknowledge(ctx, alertID, p.ID, note)
}

func (u *UseCases) ResolveAlert(ctx context.Context, p *auth.Principal, alertID types.AlertID, outcome types.ResolveOutcome) (*alert.Alert, error) {
	if err := outcome.Validate(); err != nil {
		return nil, err
	}
	a, err := u.repo.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !p.CanResolve(a) {
		return nil, goerr.New("role cannot resolve this alert",
			goerr.T(errs.TagForbidden),
			goerr.TV(errutil.UserIDKey, p.ID),
			goerr.TV(errutil.AlertIDKey, alertID),
		)
	}
	return u.engine.Resolve(ctx, alertID, p.ID, outcome)
}

func (u *UseCases) EscalateAlert(ctx context.Context, p *auth.Principal, alertID types.AlertID) (*alert.Alert, error) {
	a, err := u.repo.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !p.CanManuallyEscalate(a) {
		return nil, goerr.New("role cannot escalate this alert",
			goerr.T(errs.TagForbidden),
			goerr.TV(errutil.UserIDKey, p.ID),
			goerr.TV(errutil.AlertIDKey, alertID),
		)
	}
	return u.engine.ManualEscalate(ctx, alertID, p.ID)
}

func (u *UseCases) GetAlert(ctx context.Context, p *auth.Principal, alertID types.AlertID) (*alert.Alert, error) {
	a, err := u.repo.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !p.CanViewAlerts(a.HospitalID) {
		return nil, goerr.New("alert is outside the principal's hospital",
			goerr.T(errs.TagForbidden),
			goerr.TV(errutil.UserIDKey, p.ID),
			goerr.TV(errutil.AlertIDKey, alertID),
		)
	}
	return a, nil
}

func (u *UseCases) ListActiveAlerts(ctx context.Context, p *auth.Principal) (alert.Alerts, error) {
	hospitalID := p.HospitalID
	if p.Role == types.RoleAdmin {
		hospitalID = types.EmptyHospitalID
	}
	return u.repo.GetActiveAlerts(ctx, hospitalID)
}

func (u *UseCases) ListEscalationEvents(ctx context.Context, p *auth.Principal, alertID types.AlertID) ([]alert.EscalationEvent, error) {
	if _, err := u.GetAlert(ctx, p, alertID); err != nil {
		return nil, err
	}
	return u.repo.ListEscalationEvents(ctx, alertID)
}

// SetStaffDuty toggles a roster entry. Duty changes take effect on the next
// recipient resolution; armed timers are not touched.
func (u *UseCases) SetStaffDuty(ctx context.Context, p *auth.Principal, id types.UserID, onDuty bool) (*staff.Staff, error) {
	if !p.CanManageRoster() {
		return nil, goerr.New("role cannot manage the roster",
			goerr.T(errs.TagForbidden), goerr.TV(errutil.UserIDKey, p.ID))
	}
	s, err := u.repo.SetStaffDuty(ctx, id, onDuty)
	if err != nil {
		return nil, err
	}
	logging.From(ctx).Info("staff duty changed",
		"staff_id", id, "on_duty", onDuty, "by", p.ID)
	return s, nil
}
