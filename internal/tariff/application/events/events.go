package events

import (
	"time"

	"parking-cloud/internal/eventing"
)

// PlanActivated is raised after a plan became the active plan of its lot.
type PlanActivated struct {
	TenantID   string
	LotID      string
	PlanID     string
	OccurredAt time.Time
}

// RulesReplaced is raised after the rule set of a plan was replaced.
type RulesReplaced struct {
	TenantID   string
	LotID      string
	PlanID     string
	RuleCount  int
	PlanActive bool
	OccurredAt time.Time
}

func (e PlanActivated) EventScope() eventing.Scope {
	return eventing.Scope{TenantID: e.TenantID, LotID: e.LotID, OccurredAt: e.OccurredAt}
}

func (e RulesReplaced) EventScope() eventing.Scope {
	return eventing.Scope{TenantID: e.TenantID, LotID: e.LotID, OccurredAt: e.OccurredAt}
}
