package service

import (
	"context"
	"sync"
	"time"

	"gearshare-backend/internal/activity"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/email"
	"gearshare-backend/internal/orchestrator"
)

var fixedNow = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

type recordingActivity struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (r *recordingActivity) Append(ctx context.Context, e activity.Entry) domain.ActivityLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return domain.ActivityLogEntry{ActionType: e.ActionType, Collection: e.Collection, Description: e.Description, Details: e.Details}
}

func (r *recordingActivity) byAction(action domain.ActionType) []activity.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []activity.Entry
	for _, e := range r.entries {
		if e.ActionType == action {
			out = append(out, e)
		}
	}
	return out
}

type notifyCall struct {
	Template string
	To       string
	Vars     map[string]string
}

type fakeNotifier struct {
	calls []notifyCall
	err   error
}

func (n *fakeNotifier) SendTemplate(ctx context.Context, templateName, to, toName string, vars map[string]string) (string, error) {
	n.calls = append(n.calls, notifyCall{Template: templateName, To: to, Vars: vars})
	if n.err != nil {
		return "", n.err
	}
	return "msg-1", nil
}

type fakeSender struct {
	sent []email.Message
	err  error
}

func (s *fakeSender) Send(ctx context.Context, msg email.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "sg-1", nil
}

func newTestOrchestrator() (*orchestrator.Orchestrator, *recordingActivity, *fakeNotifier) {
	rec := &recordingActivity{}
	n := &fakeNotifier{}
	return orchestrator.New(rec, n), rec, n
}

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }
