package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
	"github.com/wardops-lab/lifeline/pkg/utils/errutil"
)

// Postgres implements Repository over pgx. TransitionIfTier is a single
// conditional UPDATE, so the row-version check and the mutation are one
// atomic statement; this is the primitive that keeps escalation correct even
// with multiple service processes.
type Postgres struct {
	pool *pgxpool.Pool
	eb   *goerr.Builder
}

var _ interfaces.Repository = &Postgres{}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool", goerr.T(errs.TagDatabase))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres", goerr.T(errs.TagDatabase))
	}

	r := &Postgres{
		pool: pool,
		eb:   goerr.NewBuilder(goerr.TV(errs.RepositoryKey, "postgres")),
	}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *Postgres) Close() error {
	r.pool.Close()
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	hospital_id TEXT NOT NULL,
	room_number TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	urgency INT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	current_tier INT NOT NULL,
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	last_transition_at TIMESTAMPTZ NOT NULL,
	acknowledged_by TEXT,
	acknowledged_at TIMESTAMPTZ,
	acknowledged_note TEXT,
	resolved_by TEXT,
	resolved_at TIMESTAMPTZ,
	outcome TEXT
);
CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts (hospital_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS escalation_events (
	id TEXT PRIMARY KEY,
	alert_id TEXT NOT NULL REFERENCES alerts(id),
	from_tier INT NOT NULL,
	to_tier INT NOT NULL,
	reason TEXT NOT NULL,
	triggered_by TEXT,
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_alert ON escalation_events (alert_id, occurred_at);

CREATE TABLE IF NOT EXISTS staff (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	role TEXT NOT NULL,
	hospital_id TEXT NOT NULL,
	on_duty BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_staff_duty ON staff (hospital_id, role) WHERE on_duty;
`

func (r *Postgres) migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return r.eb.Wrap(err, "failed to apply schema", goerr.T(errs.TagDatabase))
	}
	return nil
}

const alertColumns = `id, hospital_id, room_number, alert_type, urgency, description,
	status, current_tier, created_by, created_at, last_transition_at,
	acknowledged_by, acknowledged_at, acknowledged_note,
	resolved_by, resolved_at, outcome`

func scanAlert(row pgx.Row) (*alert.Alert, error) {
	var a alert.Alert
	var ackBy, ackNote, resolvedBy, outcome *string
	err := row.Scan(
		&a.ID, &a.HospitalID, &a.RoomNumber, &a.Type, &a.Urgency, &a.Description,
		&a.Status, &a.CurrentTier, &a.CreatedBy, &a.CreatedAt, &a.LastTransitionAt,
		&ackBy, &a.AcknowledgedAt, &ackNote,
		&resolvedBy, &a.ResolvedAt, &outcome,
	)
	if err != nil {
		return nil, err
	}
	if ackBy != nil {
		a.AcknowledgedBy = types.UserID(*ackBy)
	}
	if ackNote != nil {
		a.AcknowledgedNote = *ackNote
	}
	if resolvedBy != nil {
		a.ResolvedBy = types.UserID(*resolvedBy)
	}
	if outcome != nil {
		a.Outcome = types.ResolveOutcome(*outcome)
	}
	return &a, nil
}

func (r *Postgres) CreateAlert(ctx context.Context, a alert.Alert) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO alerts (id, hospital_id, room_number, alert_type, urgency, description,
			status, current_tier, created_by, created_at, last_transition_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.HospitalID, a.RoomNumber, a.Type, a.Urgency, a.Description,
		a.Status, a.CurrentTier, a.CreatedBy, a.CreatedAt, a.LastTransitionAt,
	)
	if err != nil {
		return r.eb.Wrap(err, "failed to insert alert", goerr.T(errs.TagDatabase), goerr.TV(errutil.AlertIDKey, a.ID))
	}
	return nil
}

func (r *Postgres) GetAlert(ctx context.Context, alertID types.AlertID) (*alert.Alert, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, alertID)
	a, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.eb.New("alert not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.AlertIDKey, alertID))
	}
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to get alert", goerr.T(errs.TagDatabase), goerr.TV(errutil.AlertIDKey, alertID))
	}
	return a, nil
}

func (r *Postgres) GetActiveAlerts(ctx context.Context, hospitalID types.HospitalID) (alert.Alerts, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE status = 'active'`
	args := []any{}
	if hospitalID != types.EmptyHospitalID {
		query += ` AND hospital_id = $1`
		args = append(args, hospitalID)
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to query active alerts", goerr.T(errs.TagDatabase))
	}
	defer rows.Close()

	var result alert.Alerts
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, r.eb.Wrap(err, "failed to scan alert", goerr.T(errs.TagDatabase))
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *Postgres) TransitionIfTier(ctx context.Context, alertID types.AlertID, expect alert.Expect, tr alert.Transition) (*alert.Alert, error) {
	sets, args := buildTransitionSets(tr)
	args = append(args, alertID)
	idArg := len(args)

	statuses := make([]string, len(expect.Statuses))
	for i, s := range expect.Statuses {
		statuses[i] = s.String()
	}
	args = append(args, statuses)
	cond := fmt.Sprintf("id = $%d AND status = ANY($%d)", idArg, len(args))
	if expect.Tier != 0 {
		args = append(args, expect.Tier)
		cond += fmt.Sprintf(" AND current_tier = $%d", len(args))
	}

	query := fmt.Sprintf("UPDATE alerts SET %s WHERE %s RETURNING %s",
		strings.Join(sets, ", "), cond, alertColumns)

	row := r.pool.QueryRow(ctx, query, args...)
	a, err := scanAlert(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, r.eb.Wrap(err, "failed to transition alert", goerr.T(errs.TagDatabase), goerr.TV(errutil.AlertIDKey, alertID))
	}

	// No row matched: distinguish a missing alert from a lost race.
	current, getErr := r.GetAlert(ctx, alertID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, r.eb.New("alert state does not match expectation",
		goerr.T(errs.TagConflict),
		goerr.TV(errutil.AlertIDKey, alertID),
		goerr.TV(errutil.TierKey, current.CurrentTier),
		goerr.TV(errutil.StatusKey, current.Status),
		goerr.V("expected_tier", expect.Tier),
	)
}

func buildTransitionSets(tr alert.Transition) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if tr.Status != "" {
		add("status", tr.Status)
	}
	if tr.Tier != 0 {
		add("current_tier", tr.Tier)
	}
	if tr.AcknowledgedBy != types.EmptyUserID {
		add("acknowledged_by", tr.AcknowledgedBy)
	}
	if tr.AcknowledgedAt != nil {
		add("acknowledged_at", *tr.AcknowledgedAt)
	}
	if tr.AcknowledgedNote != "" {
		add("acknowledged_note", tr.AcknowledgedNote)
	}
	if tr.ResolvedBy != types.EmptyUserID {
		add("resolved_by", tr.ResolvedBy)
	}
	if tr.ResolvedAt != nil {
		add("resolved_at", *tr.ResolvedAt)
	}
	if tr.Outcome != "" {
		add("outcome", tr.Outcome)
	}
	if tr.LastTransitionAt != nil {
		add("last_transition_at", *tr.LastTransitionAt)
	}
	return sets, args
}

func (r *Postgres) AppendEscalationEvent(ctx context.Context, ev alert.EscalationEvent) error {
	var triggeredBy *string
	if ev.TriggeredBy != types.EmptyUserID {
		s := ev.TriggeredBy.String()
		triggeredBy = &s
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO escalation_events (id, alert_id, from_tier, to_tier, reason, triggered_by, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.AlertID, ev.FromTier, ev.ToTier, ev.Reason, triggeredBy, ev.OccurredAt,
	)
	if err != nil {
		return r.eb.Wrap(err, "failed to append escalation event", goerr.T(errs.TagDatabase), goerr.TV(errutil.AlertIDKey, ev.AlertID))
	}
	return nil
}

func (r *Postgres) ListEscalationEvents(ctx context.Context, alertID types.AlertID) ([]alert.EscalationEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, alert_id, from_tier, to_tier, reason, triggered_by, occurred_at
		FROM escalation_events WHERE alert_id = $1 ORDER BY occurred_at, to_tier`,
		alertID,
	)
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to query escalation events", goerr.T(errs.TagDatabase), goerr.TV(errutil.AlertIDKey, alertID))
	}
	defer rows.Close()

	var events []alert.EscalationEvent
	for rows.Next() {
		var ev alert.EscalationEvent
		var triggeredBy *string
		if err := rows.Scan(&ev.ID, &ev.AlertID, &ev.FromTier, &ev.ToTier, &ev.Reason, &triggeredBy, &ev.OccurredAt); err != nil {
			return nil, r.eb.Wrap(err, "failed to scan escalation event", goerr.T(errs.TagDatabase))
		}
		if triggeredBy != nil {
			ev.TriggeredBy = types.UserID(*triggeredBy)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *Postgres) PutStaff(ctx context.Context, s staff.Staff) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff (id, name, role, hospital_id, on_duty, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, role = EXCLUDED.role,
			hospital_id = EXCLUDED.hospital_id, on_duty = EXCLUDED.on_duty,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.Name, s.Role, s.HospitalID, s.OnDuty, s.UpdatedAt,
	)
	if err != nil {
		return r.eb.Wrap(err, "failed to upsert staff", goerr.T(errs.TagDatabase), goerr.TV(errutil.UserIDKey, s.ID))
	}
	return nil
}

func (r *Postgres) GetStaff(ctx context.Context, id types.UserID) (*staff.Staff, error) {
	var s staff.Staff
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, role, hospital_id, on_duty, updated_at FROM staff WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Role, &s.HospitalID, &s.OnDuty, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.eb.New("staff not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.UserIDKey, id))
	}
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to get staff", goerr.T(errs.TagDatabase), goerr.TV(errutil.UserIDKey, id))
	}
	return &s, nil
}

func (r *Postgres) ListOnDutyStaff(ctx context.Context, hospitalID types.HospitalID, roles []types.Role) (staff.Members, error) {
	query := `SELECT id, name, role, hospital_id, on_duty, updated_at
		FROM staff WHERE hospital_id = $1 AND on_duty`
	args := []any{hospitalID}
	if len(roles) > 0 {
		roleNames := make([]string, len(roles))
		for i, role := range roles {
			roleNames[i] = role.String()
		}
		args = append(args, roleNames)
		query += fmt.Sprintf(" AND role = ANY($%d)", len(args))
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to query on-duty staff", goerr.T(errs.TagDatabase))
	}
	defer rows.Close()

	var members staff.Members
	for rows.Next() {
		var s staff.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, &s.HospitalID, &s.OnDuty, &s.UpdatedAt); err != nil {
			return nil, r.eb.Wrap(err, "failed to scan staff", goerr.T(errs.TagDatabase))
		}
		members = append(members, &s)
	}
	return members, rows.Err()
}

func (r *Postgres) SetStaffDuty(ctx context.Context, id types.UserID, onDuty bool) (*staff.Staff, error) {
	var s staff.Staff
	err := r.pool.QueryRow(ctx, `
		UPDATE staff SET on_duty = $2, updated_at = $3 WHERE id = $1
		RETURNING id, name, role, hospital_id, on_duty, updated_at`,
		id, onDuty, clock.Now(ctx),
	).Scan(&s.ID, &s.Name, &s.Role, &s.HospitalID, &s.OnDuty, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.eb.New("staff not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.UserIDKey, id))
	}
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to update staff duty", goerr.T(errs.TagDatabase), goerr.TV(errutil.UserIDKey, id))
	}
	return &s, nil
}
