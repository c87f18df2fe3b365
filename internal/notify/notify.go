// Package notify mails a summary of sync runs that did not go cleanly.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
	"github.com/sunvalleybronze/dropmirror/internal/version"
)

var (
	ErrKeyMissing           = errors.New("sendgrid api key is not set")
	ErrInvalidMailSender    = errors.New("invalid mail sender")
	ErrInvalidMailRecipient = errors.New("invalid mail recipient")
)

// maxListedFailures caps the failures listed in one mail.
const maxListedFailures = 50

var bodyTemplate = template.Must(template.New("report").Parse(`<h2>{{.App}} sync run {{.Report.RunID}}</h2>
<p>{{.Report.Summary}}</p>
{{if .Report.Anomalies}}<h3>Anomalies</h3>
<ul>{{range .Report.Anomalies}}<li>{{.}}</li>{{end}}</ul>
{{end}}{{if .Failures}}<h3>Failures</h3>
<table>{{range .Failures}}<tr><td>{{.Op}}</td><td>{{.Path}}</td><td>{{.Cause}}</td></tr>{{end}}</table>
{{if .More}}<p>and {{.More}} more</p>{{end}}
{{end}}`))

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Notifier is a report sink that mails runs with failures or anomalies.
type Notifier struct {
	client sender
	config *Config
}

func New(config *Config) *Notifier {
	return &Notifier{
		client: sendgrid.NewSendClient(config.SendgridAPIKey),
		config: config,
	}
}

// Consume sends a mail when the run was not clean. Clean runs are ignored.
func (n *Notifier) Consume(ctx context.Context, report *mirror.Report) error {
	if report.OK() {
		return nil
	}

	message, err := n.message(report)
	if err != nil {
		return err
	}

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send report mail: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send report mail: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}

	slog.Debug("report mail sent", "runId", report.RunID, "to", n.config.To, "status", resp.StatusCode, "messageId", resp.Headers["X-Message-Id"])
	return nil
}

func (n *Notifier) message(report *mirror.Report) (*mail.SGMailV3, error) {
	failures := report.Failures
	more := 0
	if len(failures) > maxListedFailures {
		more = len(failures) - maxListedFailures
		failures = failures[:maxListedFailures]
	}

	var body bytes.Buffer
	if err := bodyTemplate.Execute(&body, map[string]any{
		"App":      version.AppName,
		"Report":   report,
		"Failures": failures,
		"More":     more,
	}); err != nil {
		return nil, fmt.Errorf("render report mail: %w", err)
	}

	fromName := n.config.FromName
	if fromName == "" {
		fromName = version.AppName
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(fromName, n.config.From))
	m.Subject = subject(report)
	p := mail.NewPersonalization()
	for _, to := range n.config.To {
		p.AddTos(mail.NewEmail(to, to))
	}
	m.AddPersonalizations(p)
	m.AddContent(
		mail.NewContent("text/plain", report.Summary()),
		mail.NewContent("text/html", body.String()),
	)
	return m, nil
}

func subject(report *mirror.Report) string {
	switch {
	case report.GuardTripped:
		return fmt.Sprintf("[%s] deletion guard tripped in run %s", version.AppName, report.RunID)
	case len(report.Failures) > 0:
		return fmt.Sprintf("[%s] %d failures in run %s", version.AppName, len(report.Failures), report.RunID)
	default:
		return fmt.Sprintf("[%s] anomalies in run %s", version.AppName, report.RunID)
	}
}

var _ mirror.ReportSink = (*Notifier)(nil)
