package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/projecta/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoRecipients is returned when a notice has nobody to send to
var ErrNoRecipients = errors.New("notification has no recipients")

// Subject kinds used in the templates
const (
	KindOrganisation = "organisation"
	KindSponsor      = "sponsorship"
)

// StatusChangeNotice describes one workflow transition to announce
type StatusChangeNotice struct {
	Recipients  []string
	Kind        string
	ProjectName string
	SubjectName string
	State       shared.ApprovalState
	StatusName  string
	Remarks     string
	Actor       string
}

// ReviewerInvite describes an external reviewer invitation
type ReviewerInvite struct {
	Email            string
	ProjectName      string
	OrganisationName string
	Token            string
	ExpiresAt        time.Time
}

// DeliveryRecorder counts notification outcomes
type DeliveryRecorder interface {
	RecordNotification(ctx context.Context, kind string, ok bool)
}

var funcs = template.FuncMap{
	"title": cases.Title(language.English).String,
}

var statusTemplates = map[shared.ApprovalState]struct{ subject, body *template.Template }{
	shared.ApprovalApproved: {
		subject: template.Must(template.New("approved_subject").Funcs(funcs).Parse(
			`[{{.ProjectName}}] {{title .Kind}} approved: {{.SubjectName}}`)),
		body: template.Must(template.New("approved_body").Funcs(funcs).Parse(`Dear {{.SubjectName}} team,

Your {{.Kind}} is approved in {{.ProjectName}}.
{{- if .StatusName}}
Status: {{.StatusName}}
{{- end}}
{{- if .Remarks}}

Remarks: {{.Remarks}}
{{- end}}

Reviewed by {{.Actor}}.
`)),
	},
	shared.ApprovalRejected: {
		subject: template.Must(template.New("rejected_subject").Funcs(funcs).Parse(
			`[{{.ProjectName}}] {{title .Kind}} rejected: {{.SubjectName}}`)),
		body: template.Must(template.New("rejected_body").Funcs(funcs).Parse(`Dear {{.SubjectName}} team,

Your {{.Kind}} is rejected in {{.ProjectName}}.
{{- if .StatusName}}
Status: {{.StatusName}}
{{- end}}
{{- if .Remarks}}

Remarks: {{.Remarks}}
{{- end}}

Reviewed by {{.Actor}}.
`)),
	},
	shared.ApprovalPending: {
		subject: template.Must(template.New("pending_subject").Funcs(funcs).Parse(
			`[{{.ProjectName}}] {{title .Kind}} under review: {{.SubjectName}}`)),
		body: template.Must(template.New("pending_body").Funcs(funcs).Parse(`Dear {{.SubjectName}} team,

The review of your {{.Kind}} in {{.ProjectName}} is pending.
{{- if .StatusName}}
Status: {{.StatusName}}
{{- end}}
{{- if .Remarks}}

Remarks: {{.Remarks}}
{{- end}}

Updated by {{.Actor}}.
`)),
	},
}

var inviteTemplate = template.Must(template.New("reviewer_invite").Parse(`Hello,

You have been invited to review {{.OrganisationName}} for {{.ProjectName}}.

Your access token is:

    {{.Token}}

It is valid until {{.ExpiresAt.UTC.Format "2006-01-02 15:04 MST"}}.
`))

// Dispatcher renders notices and hands them to a Sender synchronously
type Dispatcher struct {
	sender   Sender
	logger   *zap.Logger
	recorder DeliveryRecorder
}

// NewDispatcher creates a dispatcher. recorder may be nil.
func NewDispatcher(sender Sender, logger *zap.Logger, recorder DeliveryRecorder) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger, recorder: recorder}
}

// NotifyStatusChange sends one message to every recipient of n
func (d *Dispatcher) NotifyStatusChange(ctx context.Context, n StatusChangeNotice) error {
	to := recipients(n.Recipients)
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if n.Kind == "" {
		n.Kind = KindOrganisation
	}
	tmpl, ok := statusTemplates[n.State]
	if !ok {
		return fmt.Errorf("no template for state %q", n.State)
	}

	subject, err := render(tmpl.subject, n)
	if err != nil {
		return err
	}
	body, err := render(tmpl.body, n)
	if err != nil {
		return err
	}

	err = d.sender.Send(ctx, Message{To: to, Subject: strings.TrimSpace(subject), Body: body})
	d.record(ctx, "status_"+string(n.State), err == nil)
	if err != nil {
		return fmt.Errorf("send status notification: %w", err)
	}

	d.logger.Info("Status notification sent",
		zap.String("kind", n.Kind),
		zap.String("subject_name", n.SubjectName),
		zap.String("state", string(n.State)),
		zap.Int("recipients", len(to)),
	)
	return nil
}

// NotifyReviewerInvite sends the access token to a new external reviewer
func (d *Dispatcher) NotifyReviewerInvite(ctx context.Context, inv ReviewerInvite) error {
	to := recipients([]string{inv.Email})
	if len(to) == 0 {
		return ErrNoRecipients
	}
	body, err := render(inviteTemplate, inv)
	if err != nil {
		return err
	}
	err = d.sender.Send(ctx, Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] Review invitation: %s", inv.ProjectName, inv.OrganisationName),
		Body:    body,
	})
	d.record(ctx, "reviewer_invite", err == nil)
	if err != nil {
		return fmt.Errorf("send reviewer invitation: %w", err)
	}
	return nil
}

func (d *Dispatcher) record(ctx context.Context, kind string, ok bool) {
	if d.recorder != nil {
		d.recorder.RecordNotification(ctx, kind, ok)
	}
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func recipients(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		key := strings.ToLower(r)
		if r == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
