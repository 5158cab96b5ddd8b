// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/keygen-bridge/internal/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type NotificationService struct {
	config   config.EmailConfig
	sendMail sendMailFunc
	log      *logrus.Entry
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(cfg config.EmailConfig) *NotificationService {
	return &NotificationService{
		config:   cfg,
		sendMail: smtp.SendMail,
		log:      logrus.WithField("component", "notifications"),
	}
}

// SendLicenseIssued mails the new license key to the customer.
func (s *NotificationService) SendLicenseIssued(to, orderID, licenseKey string) error {
	tmpl := s.getEmailTemplate("license_issued")

	data := map[string]interface{}{
		"OrderID":    orderID,
		"LicenseKey": licenseKey,
		"FromName":   s.config.FromName,
	}

	subject, err := s.renderTemplate(tmpl.Subject, data)
	if err != nil {
		return fmt.Errorf("failed to render email subject: %w", err)
	}
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(to, subject, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.SMTPHost == "" {
		s.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("SMTP not configured, email skipped")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)

	from := s.config.FromEmail
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", from, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.SMTPHost, s.config.SMTPPort)
	if err := s.sendMail(addr, auth, s.config.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"license_issued": {
			Subject: "Your license key for order {{.OrderID}}",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thank you for your purchase!</h2>
	<p>Your license for order {{.OrderID}} is ready:</p>
	<pre style="font-size:16px">{{.LicenseKey}}</pre>
	<p>You can manage your devices in your customer account.</p>
	<p>Best regards,<br>{{.FromName}}</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
