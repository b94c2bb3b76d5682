package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type AlertID string

func (x AlertID) String() string {
	return string(x)
}

func NewAlertID() AlertID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return AlertID(id.String())
}

func (x AlertID) Validate() error {
	if x == EmptyAlertID {
		return goerr.New("empty alert ID")
	}
	if _, err := uuid.Parse(string(x)); err != nil {
		return goerr.Wrap(err, "invalid alert ID format", goerr.V("id", x))
	}
	return nil
}

const (
	EmptyAlertID AlertID = ""
)

type EscalationEventID string

func (x EscalationEventID) String() string {
	return string(x)
}

func NewEscalationEventID() EscalationEventID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return EscalationEventID(id.String())
}

// AlertType is the category of the emergency as chosen by the operator at creation time.
type AlertType string

const (
	AlertTypeCardiacArrest AlertType = "cardiac_arrest"
	AlertTypeCodeBlue      AlertType = "code_blue"
	AlertTypeFall          AlertType = "fall"
	AlertTypeAssistance    AlertType = "assistance"
	AlertTypeGeneral       AlertType = "general"
)

var alertTypeLabels = map[AlertType]string{
	AlertTypeCardiacArrest: "🫀 Cardiac Arrest",
	AlertTypeCodeBlue:      "🔵 Code Blue",
	AlertTypeFall:          "🛌 Fall",
	AlertTypeAssistance:    "🙋 Assistance",
	AlertTypeGeneral:       "📢 General",
}

func (x AlertType) String() string {
	return string(x)
}

func (x AlertType) Label() string {
	return alertTypeLabels[x]
}

func (x AlertType) Validate() error {
	switch x {
	case AlertTypeCardiacArrest, AlertTypeCodeBlue, AlertTypeFall, AlertTypeAssistance, AlertTypeGeneral:
		return nil
	}
	return goerr.New("invalid alert type", goerr.V("type", x))
}

type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

var alertStatusLabels = map[AlertStatus]string{
	AlertStatusActive:       "🚨 Active",
	AlertStatusAcknowledged: "👀 Acknowledged",
	AlertStatusResolved:     "✅️ Resolved",
}

func (s AlertStatus) String() string {
	return string(s)
}

func (s AlertStatus) Label() string {
	return alertStatusLabels[s]
}

func (s AlertStatus) Validate() error {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved:
		return nil
	}
	return goerr.New("invalid alert status", goerr.V("status", s))
}

// Urgency is the clinical urgency of an alert. 1 is the most urgent, 5 is
// the least. It selects the escalation timeout profile.
type Urgency int

const (
	UrgencyHighest Urgency = 1
	UrgencyLowest  Urgency = 5
)

var urgencyLabels = map[Urgency]string{
	1: "🔴 Critical",
	2: "🟠 High",
	3: "🟡 Moderate",
	4: "🟢 Low",
	5: "⚪️ Routine",
}

func (u Urgency) Label() string {
	return urgencyLabels[u]
}

func (u Urgency) Validate() error {
	if u < UrgencyHighest || u > UrgencyLowest {
		return goerr.New("urgency must be between 1 and 5", goerr.V("urgency", int(u)))
	}
	return nil
}

// EscalationReason records why a tier transition happened.
type EscalationReason string

const (
	EscalationReasonTimeout EscalationReason = "timeout"
	EscalationReasonManual  EscalationReason = "manual"
)

func (r EscalationReason) String() string {
	return string(r)
}

func (r EscalationReason) Validate() error {
	switch r {
	case EscalationReasonTimeout, EscalationReasonManual:
		return nil
	}
	return goerr.New("invalid escalation reason", goerr.V("reason", r))
}

// ResolveOutcome is the conclusion of the alert. This is set by the staff
// member who resolves it.
type ResolveOutcome string

const (
	ResolveOutcomeHandled     ResolveOutcome = "handled"
	ResolveOutcomeFalseAlarm  ResolveOutcome = "false_alarm"
	ResolveOutcomeTransferred ResolveOutcome = "transferred"
)

var resolveOutcomeLabels = map[ResolveOutcome]string{
	ResolveOutcomeHandled:     "👍 Handled",
	ResolveOutcomeFalseAlarm:  "🚫 False Alarm",
	ResolveOutcomeTransferred: "🏥 Transferred",
}

func (r ResolveOutcome) String() string {
	return string(r)
}

func (r ResolveOutcome) Label() string {
	return resolveOutcomeLabels[r]
}

func (r ResolveOutcome) Validate() error {
	switch r {
	case ResolveOutcomeHandled, ResolveOutcomeFalseAlarm, ResolveOutcomeTransferred:
		return nil
	}
	return goerr.New("invalid resolve outcome", goerr.V("outcome", r))
}
