package mailer

import (
	"fmt"
	"net/smtp"
	"os"

	"github.com/rs/zerolog"
)

// SendPassEmail notifies a pass holder about a lifecycle change.
// status is "issued" or "expired". Failures are returned to the
// caller, which logs and moves on; mail is never load-bearing.
func SendPassEmail(log *zerolog.Logger, status, recipient, holderName, eventName, passCode, verifyURL string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	from := os.Getenv("SMTP_FROM")
	pass := os.Getenv("SMTP_PASSWORD")
	if host == "" || from == "" {
		return fmt.Errorf("smtp not configured")
	}
	if port == "" {
		port = "587"
	}

	var subject, body string
	switch status {
	case "issued":
		subject = fmt.Sprintf("Your entry pass for %s", eventName)
		body = fmt.Sprintf(
			"Hello %s,\n\nYour entry pass for %s has been issued.\nPass code: %s\n\nPresent this link at the venue for scanning:\n%s\n",
			holderName, eventName, passCode, verifyURL,
		)
	case "expired":
		subject = fmt.Sprintf("Your entry pass for %s has expired", eventName)
		body = fmt.Sprintf(
			"Hello %s,\n\nYour entry pass %s for %s is past its validity window and is no longer usable.\n",
			holderName, passCode, eventName,
		)
	default:
		return fmt.Errorf("unknown pass mail status %q", status)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from, recipient, subject, body,
	)

	auth := smtp.PlainAuth("", from, pass, host)
	if err := smtp.SendMail(host+":"+port, auth, from, []string{recipient}, []byte(msg)); err != nil {
		log.Warn().Msgf("failed to send %s mail to %s: %v", status, recipient, err)
		return fmt.Errorf("send email: %w", err)
	}

	log.Info().Msgf("mail sent to %s (status: %s)", recipient, status)
	return nil
}
