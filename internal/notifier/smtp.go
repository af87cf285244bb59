package notifier

import (
	"fmt"
	"net/smtp"
)

// SMTPNotifier sends mail through a plain-auth SMTP relay on port 587.
type SMTPNotifier struct {
	Host     string
	User     string
	Password string
	From     string
}

func NewSMTPNotifier(host, user, password, from string) *SMTPNotifier {
	return &SMTPNotifier{Host: host, User: user, Password: password, From: from}
}

func (s *SMTPNotifier) Configured() bool {
	return s != nil && s.Host != "" && s.User != ""
}

func (s *SMTPNotifier) SendPasswordReset(to, firstName, resetLink string) error {
	if !s.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	subject := "Password Reset"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"You requested a password reset. Open the link below to reset your password:\r\n\r\n"+
			"%s\r\n\r\n"+
			"If you did not request this, please ignore this email.\r\n",
		firstName, resetLink)

	addr := fmt.Sprintf("%s:%d", s.Host, 587)
	auth := smtp.PlainAuth("", s.User, s.Password, s.Host)
	msg := []byte("To: " + to + "\r\n" +
		"From: Task Management System <" + s.From + ">\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" + body)
	return smtp.SendMail(addr, auth, s.From, []string{to}, msg)
}
