// Package orchestrator runs one create, update or delete across the
// external backends: primary writes first, then best-effort mirror writes,
// then the activity log and an optional notification email.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"gearshare-backend/internal/activity"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/metrics"
)

// ErrSkip tells Execute a secondary step had nothing to do.
var ErrSkip = errors.New("step skipped")

// Outcome values reported by Result.Outcome.
const (
	OutcomeSucceeded             = "succeeded"
	OutcomeSucceededWithWarnings = "succeeded_with_warnings"
)

// State is shared by the steps of one Execute call. Steps fill in the
// entity id, cross-references and the current snapshot as they go.
type State struct {
	EntityID string
	Refs     map[string]string
	Previous domain.Fields
	Current  domain.Fields
}

// SetRef records a cross-reference id produced by a step.
func (s *State) SetRef(key, id string) {
	if id != "" {
		s.Refs[key] = id
	}
}

// Step is one backend write. Primary steps are fatal on failure. A
// secondary step that fails produces a warning, unless AbortOnFailure is
// set, in which case Execute returns the error after logging the
// committed primary write.
type Step struct {
	Name           string
	Backend        string
	Primary        bool
	AbortOnFailure bool
	Run            func(ctx context.Context, st *State) error
}

// Notification is an email sent after a successful write.
type Notification struct {
	Template string
	To       string
	ToName   string
	Vars     map[string]string
}

// Plan declares one operation for one entity type.
type Plan struct {
	Collection string
	Action     domain.ActionType
	EntityID   string

	// Validate runs before any I/O.
	Validate func() error
	// Load fetches the previous state for update and delete.
	Load        func(ctx context.Context, st *State) error
	LoadBackend string

	Steps []Step

	Describe func(st *State) string
	// Details adds keys to the activity entry details.
	Details func(st *State) map[string]any
	// Notify returns nil when no email applies.
	Notify func(st *State) *Notification
}

// Result is what Execute reports for a Plan whose primary steps succeeded.
// Warnings lists every secondary write that failed.
type Result struct {
	EntityID string            `json:"id"`
	Refs     map[string]string `json:"refs,omitempty"`
	Previous domain.Fields     `json:"-"`
	Current  domain.Fields     `json:"-"`
	Warnings []string          `json:"warnings"`
	// NotificationID is the provider message id when an email was sent.
	NotificationID string `json:"-"`
}

// Outcome classifies the result for metrics and API responses.
func (r *Result) Outcome() string {
	if len(r.Warnings) > 0 {
		return OutcomeSucceededWithWarnings
	}
	return OutcomeSucceeded
}

// ActivityRecorder appends to the activity log and never fails.
type ActivityRecorder interface {
	Append(ctx context.Context, e activity.Entry) domain.ActivityLogEntry
}

// Notifier sends a stored email template.
type Notifier interface {
	SendTemplate(ctx context.Context, templateName, to, toName string, vars map[string]string) (string, error)
}

// Orchestrator executes Plans: primary steps, then secondary steps,
// then one activity entry and an optional notification.
type Orchestrator struct {
	activity ActivityRecorder
	notifier Notifier
}

func New(activity ActivityRecorder, notifier Notifier) *Orchestrator {
	return &Orchestrator{activity: activity, notifier: notifier}
}

// Execute runs plan. Writes are sequential and never retried here; the
// transport already retries transient network errors once.
func (o *Orchestrator) Execute(ctx context.Context, plan Plan) (*Result, error) {
	method := fmt.Sprintf("Orchestrator.%s.%s", plan.Collection, plan.Action)
	logger.EnterMethod(method, "entityID", plan.EntityID)

	res, err := o.execute(ctx, plan)

	outcome := metrics.OutcomeError
	if err != nil {
		logger.ExitMethodWithError(method, err, "entityID", plan.EntityID)
	} else {
		outcome = res.Outcome()
		logger.ExitMethod(method, "entityID", res.EntityID, "outcome", outcome, "warnings", len(res.Warnings))
	}
	metrics.OrchestratorOperationsTotal.WithLabelValues(plan.Collection, string(plan.Action), outcome).Inc()
	return res, err
}

func (o *Orchestrator) execute(ctx context.Context, plan Plan) (*Result, error) {
	if plan.Validate != nil {
		if err := plan.Validate(); err != nil {
			return nil, err
		}
	}

	st := &State{EntityID: plan.EntityID, Refs: map[string]string{}}

	if plan.Load != nil {
		if err := plan.Load(ctx, st); err != nil {
			return nil, &domain.BackendReadError{Backend: plan.LoadBackend, Operation: "load " + plan.Collection, Err: err}
		}
	}

	for _, step := range plan.Steps {
		if !step.Primary {
			continue
		}
		if err := step.Run(ctx, st); err != nil {
			return nil, &domain.BackendWriteError{Backend: step.Backend, Operation: step.Name, Err: err}
		}
	}

	var (
		warnings []string
		abortErr error
	)
	for _, step := range plan.Steps {
		if step.Primary {
			continue
		}
		err := step.Run(ctx, st)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrSkip) || errors.Is(err, domain.ErrNotFound) {
			logger.DebugContext(ctx, "Secondary step skipped", "collection", plan.Collection, "step", step.Name, "reason", err)
			continue
		}
		secErr := &domain.SecondaryWriteError{Backend: step.Backend, Operation: step.Name, Err: err}
		logger.WarnContext(ctx, "Secondary write failed",
			"collection", plan.Collection, "entityID", st.EntityID, "step", step.Name, "error", err, "abort", step.AbortOnFailure)
		if step.AbortOnFailure {
			abortErr = secErr
			break
		}
		warnings = append(warnings, secErr.Error())
	}

	o.activity.Append(ctx, activity.Entry{
		ActionType:  plan.Action,
		Collection:  plan.Collection,
		Description: describe(plan, st),
		Details:     details(plan, st, warnings, abortErr),
	})

	if abortErr != nil {
		return nil, abortErr
	}

	res := &Result{
		EntityID: st.EntityID,
		Refs:     st.Refs,
		Previous: st.Previous,
		Current:  st.Current,
		Warnings: warnings,
	}

	if plan.Notify != nil && o.notifier != nil {
		if n := plan.Notify(st); n != nil && n.To != "" {
			id, err := o.notifier.SendTemplate(ctx, n.Template, n.To, n.ToName, n.Vars)
			if err != nil {
				notifyErr := &domain.NotificationError{Template: n.Template, To: n.To, Err: err}
				logger.WarnContext(ctx, "Notification failed", "collection", plan.Collection, "entityID", st.EntityID, "error", notifyErr)
				res.Warnings = append(res.Warnings, notifyErr.Error())
			} else {
				res.NotificationID = id
			}
		}
	}

	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	return res, nil
}

func describe(plan Plan, st *State) string {
	if plan.Describe != nil {
		return plan.Describe(st)
	}
	return fmt.Sprintf("%s %s %s", plan.Action, plan.Collection, st.EntityID)
}

func details(plan Plan, st *State, warnings []string, abortErr error) map[string]any {
	d := map[string]any{"entity_id": st.EntityID}
	switch plan.Action {
	case domain.ActionCreate:
		d["new_state"] = st.Current
	case domain.ActionUpdate:
		d["previous_state"] = st.Previous
		d["new_state"] = st.Current
		d["updated_fields"] = domain.Diff(st.Previous, st.Current)
	case domain.ActionDelete:
		d["previous_state"] = st.Previous
	}
	if len(st.Refs) > 0 {
		d["refs"] = st.Refs
	}
	if plan.Details != nil {
		for k, v := range plan.Details(st) {
			d[k] = v
		}
	}
	if len(warnings) > 0 {
		d["warnings"] = warnings
	}
	if abortErr != nil {
		d["aborted"] = abortErr.Error()
	}
	return d
}
