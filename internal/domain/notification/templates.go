package notification

import (
	"fmt"
	"strings"
	"text/template"

	"procura/internal/domain"
)

// Audience groups for event routing.
const (
	audienceCustomer = "customer"
	audienceSupplier = "supplier"
	audiencePlanners = "planners"
)

type messageTemplate struct {
	audiences []string
	subject   *template.Template
	body      *template.Template
}

func mustTemplate(name, subject, body string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(name + ".subject").Parse(subject)),
		body:    template.Must(template.New(name + ".body").Parse(body)),
	}
}

func forAudiences(t messageTemplate, audiences ...string) messageTemplate {
	t.audiences = audiences
	return t
}

// templates maps event types to their rendering and routing rules.
// Payload keys follow the JSON tags of the event payloads in the domain
// package.
var templates = map[string]messageTemplate{
	domain.EventOrderCreated: forAudiences(mustTemplate(
		"order.created",
		"Order {{.number}} received",
		"Order {{.number}} has been received and is awaiting planning.",
	), audienceCustomer, audiencePlanners),

	domain.EventOrderStatusChanged: forAudiences(mustTemplate(
		"order.status_changed",
		"Order {{.number}} is now {{.status}}",
		"Order {{.number}} moved from {{.oldStatus}} to {{.status}}.",
	), audienceCustomer),

	domain.EventOrderCancelled: forAudiences(mustTemplate(
		"order.cancelled",
		"Order {{.number}} cancelled",
		"Order {{.number}} has been cancelled.{{if .reason}} Reason: {{.reason}}{{end}}",
	), audienceCustomer, audiencePlanners),

	domain.EventPlanExecuted: forAudiences(mustTemplate(
		"plan.executed",
		"Order {{.orderNumber}} distributed",
		"Order {{.orderNumber}} was distributed across {{.allocations}} allocation(s) using the {{.strategy}} strategy.",
	), audiencePlanners),

	domain.EventPOCreated: forAudiences(mustTemplate(
		"po.created",
		"Purchase order {{.number}} created",
		"Purchase order {{.number}} for order {{.orderNumber}} has been created and awaits sending.",
	), audiencePlanners),

	domain.EventPOSent: forAudiences(mustTemplate(
		"po.sent",
		"Purchase order {{.number}} awaits your confirmation",
		"Purchase order {{.number}} has been sent to you.{{if .requiredDate}} Required delivery date: {{.requiredDate}}.{{end}} Please confirm or reject it in the supplier portal.",
	), audienceSupplier),

	domain.EventPOConfirmed: forAudiences(mustTemplate(
		"po.confirmed",
		"Purchase order {{.number}} confirmed",
		"The supplier confirmed purchase order {{.number}}.{{if .confirmedDate}} Confirmed delivery date: {{.confirmedDate}}.{{end}}",
	), audiencePlanners),

	domain.EventPORejected: forAudiences(mustTemplate(
		"po.rejected",
		"Purchase order {{.number}} rejected",
		"The supplier rejected purchase order {{.number}}.{{if .reason}} Reason: {{.reason}}{{end}}",
	), audiencePlanners),

	domain.EventPOCancelled: forAudiences(mustTemplate(
		"po.cancelled",
		"Purchase order {{.number}} cancelled",
		"Purchase order {{.number}} has been cancelled.{{if .reason}} Reason: {{.reason}}{{end}}",
	), audienceSupplier),
}

func (t messageTemplate) render(payload map[string]any) (subject, body string, err error) {
	var sb strings.Builder
	if err := t.subject.Execute(&sb, payload); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	subject = sb.String()

	sb.Reset()
	if err := t.body.Execute(&sb, payload); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subject, sb.String(), nil
}
