package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

//go:embed templates/*.html
var templateFS embed.FS

var deadlineWarningTmpl = template.Must(template.ParseFS(templateFS, "templates/deadline_warning.html"))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		From:   from,
		Dialer: gomail.NewDialer(host, port, user, password),
	}
}

func (s *EmailSender) SendDeadlineWarning(ctx context.Context, payload queue.DeadlineWarningPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := DeadlineWarningEmailData{
		CompanyName:     payload.CompanyName,
		Message:         payload.Message,
		Deadline:        payload.ProgressDeadline.UTC().Format("2006-01-02"),
		DaysUntilExpiry: payload.DaysUntilExpiry,
	}
	var body bytes.Buffer
	if err := deadlineWarningTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render deadline warning: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", payload.OwnerEmail)
	m.SetHeader("Subject", fmt.Sprintf("%s: protection ends in %d day(s)", payload.CompanyName, payload.DaysUntilExpiry))
	m.SetBody("text/html", body.String())

	if err := s.Dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send smtp: %w", err)
	}
	return nil
}
