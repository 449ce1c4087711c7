package mail

import "gopkg.in/gomail.v2"

type DeadlineWarningEmailData struct {
	CompanyName     string
	Message         string
	Deadline        string
	DaysUntilExpiry int
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From   string
	Dialer Dialer
}
