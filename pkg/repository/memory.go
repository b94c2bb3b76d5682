package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
	"github.com/wardops-lab/lifeline/pkg/utils/errutil"
)

// Memory keeps everything under a single mutex, which makes TransitionIfTier
// trivially atomic. It backs tests and the local demo mode.
type Memory struct {
	mu sync.RWMutex

	alerts map[types.AlertID]*alert.Alert
	events map[types.AlertID][]alert.EscalationEvent
	staff  map[types.UserID]*staff.Staff

	eb *goerr.Builder
}

var _ interfaces.Repository = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		alerts: make(map[types.AlertID]*alert.Alert),
		events: make(map[types.AlertID][]alert.EscalationEvent),
		staff:  make(map[types.UserID]*staff.Staff),
		eb:     goerr.NewBuilder(goerr.TV(errs.RepositoryKey, "memory")),
	}
}

func (r *Memory) CreateAlert(ctx context.Context, a alert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alerts[a.ID]; ok {
		return r.eb.New("alert already exists", goerr.T(errs.TagConflict), goerr.TV(errutil.AlertIDKey, a.ID))
	}
	r.alerts[a.ID] = a.Clone()
	return nil
}

func (r *Memory) GetAlert(ctx context.Context, alertID types.AlertID) (*alert.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.alerts[alertID]
	if !ok {
		return nil, r.eb.New("alert not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.AlertIDKey, alertID))
	}
	return a.Clone(), nil
}

func (r *Memory) GetActiveAlerts(ctx context.Context, hospitalID types.HospitalID) (alert.Alerts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result alert.Alerts
	for _, a := range r.alerts {
		if !a.IsActive() {
			continue
		}
		if hospitalID != types.EmptyHospitalID && a.HospitalID != hospitalID {
			continue
		}
		result = append(result, a.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *Memory) TransitionIfTier(ctx context.Context, alertID types.AlertID, expect alert.Expect, tr alert.Transition) (*alert.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.alerts[alertID]
	if !ok {
		return nil, r.eb.New("alert not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.AlertIDKey, alertID))
	}
	if !expect.Matches(a) {
		return nil, r.eb.New("alert state does not match expectation",
			goerr.T(errs.TagConflict),
			goerr.TV(errutil.AlertIDKey, alertID),
			goerr.TV(errutil.TierKey, a.CurrentTier),
			goerr.TV(errutil.StatusKey, a.Status),
			goerr.V("expected_tier", expect.Tier),
		)
	}

	updated := tr.Apply(a)
	r.alerts[alertID] = updated
	return updated.Clone(), nil
}

func (r *Memory) AppendEscalationEvent(ctx context.Context, ev alert.EscalationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[ev.AlertID] = append(r.events[ev.AlertID], ev)
	return nil
}

func (r *Memory) ListEscalationEvents(ctx context.Context, alertID types.AlertID) ([]alert.EscalationEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]alert.EscalationEvent, len(r.events[alertID]))
	copy(events, r.events[alertID])
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
	return events, nil
}

func (r *Memory) PutStaff(ctx context.Context, s staff.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := s
	r.staff[s.ID] = &c
	return nil
}

func (r *Memory) GetStaff(ctx context.Context, id types.UserID) (*staff.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.staff[id]
	if !ok {
		return nil, r.eb.New("staff not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.UserIDKey, id))
	}
	c := *s
	return &c, nil
}

func (r *Memory) ListOnDutyStaff(ctx context.Context, hospitalID types.HospitalID, roles []types.Role) (staff.Members, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[types.Role]bool, len(roles))
	for _, role := range roles {
		wanted[role] = true
	}

	var members staff.Members
	for _, s := range r.staff {
		if !s.OnDuty || s.HospitalID != hospitalID {
			continue
		}
		if len(roles) > 0 && !wanted[s.Role] {
			continue
		}
		c := *s
		members = append(members, &c)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].ID < members[j].ID
	})
	return members, nil
}

func (r *Memory) SetStaffDuty(ctx context.Context, id types.UserID, onDuty bool) (*staff.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.staff[id]
	if !ok {
		return nil, r.eb.New("staff not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.UserIDKey, id))
	}
	s.OnDuty = onDuty
	s.UpdatedAt = clock.Now(ctx)
	c := *s
	return &c, nil
}
