package notification

import (
	"strings"
	"testing"

	"procura/internal/domain"
)

func TestEveryWorkflowEventHasTemplate(t *testing.T) {
	events := []string{
		domain.EventOrderCreated,
		domain.EventOrderStatusChanged,
		domain.EventOrderCancelled,
		domain.EventPlanExecuted,
		domain.EventPOCreated,
		domain.EventPOSent,
		domain.EventPOConfirmed,
		domain.EventPORejected,
		domain.EventPOCancelled,
	}
	for _, evt := range events {
		tmpl, ok := templates[evt]
		if !ok {
			t.Errorf("no template for %s", evt)
			continue
		}
		if len(tmpl.audiences) == 0 {
			t.Errorf("template %s routes to nobody", evt)
		}
	}
}

func TestTemplateRendering(t *testing.T) {
	tests := []struct {
		event    string
		payload  map[string]any
		wantSubj string
		wantBody string
	}{
		{
			event:    domain.EventOrderCreated,
			payload:  map[string]any{"number": "ORD-2026-00001"},
			wantSubj: "ORD-2026-00001",
			wantBody: "awaiting planning",
		},
		{
			event:    domain.EventOrderStatusChanged,
			payload:  map[string]any{"number": "ORD-2026-00001", "status": "confirmed", "oldStatus": "partially_confirmed"},
			wantSubj: "confirmed",
			wantBody: "partially_confirmed",
		},
		{
			event:    domain.EventPlanExecuted,
			payload:  map[string]any{"orderNumber": "ORD-2026-00001", "allocations": 3, "strategy": "balanced"},
			wantSubj: "distributed",
			wantBody: "balanced",
		},
		{
			event:    domain.EventPORejected,
			payload:  map[string]any{"number": "PO-2026-00042", "reason": "capacity exhausted"},
			wantSubj: "rejected",
			wantBody: "capacity exhausted",
		},
		{
			// optional reason absent
			event:    domain.EventPORejected,
			payload:  map[string]any{"number": "PO-2026-00042"},
			wantSubj: "rejected",
			wantBody: "PO-2026-00042",
		},
	}

	for _, tt := range tests {
		subject, body, err := templates[tt.event].render(tt.payload)
		if err != nil {
			t.Errorf("%s: render error = %v", tt.event, err)
			continue
		}
		if !strings.Contains(subject, tt.wantSubj) {
			t.Errorf("%s: subject %q misses %q", tt.event, subject, tt.wantSubj)
		}
		if !strings.Contains(body, tt.wantBody) {
			t.Errorf("%s: body %q misses %q", tt.event, body, tt.wantBody)
		}
	}
}

func TestRejectedTemplateOmitsEmptyReason(t *testing.T) {
	_, body, err := templates[domain.EventPORejected].render(map[string]any{"number": "PO-1"})
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if strings.Contains(body, "Reason") {
		t.Errorf("body %q should omit the reason clause", body)
	}
}
