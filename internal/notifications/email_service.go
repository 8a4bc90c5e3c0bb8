package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	texttemplate "text/template"

	"boutique/pkg/logger"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	BaseURL   string
}

// mailDialer is the part of gomail.Dialer the sender needs
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPEmailService struct {
	config SMTPConfig
	dialer mailDialer
}

func NewSMTPEmailService(config SMTPConfig) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(config); err != nil {
		return nil, err
	}
	return &SMTPEmailService{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
	}, nil
}

// newEmailService falls back to logging rendered emails when SMTP is not configured
func newEmailService(config SMTPConfig, log *logger.Logger) EmailService {
	svc, err := NewSMTPEmailService(config)
	if err != nil {
		log.Warn("SMTP disabled, emails will only be logged", logger.Err(err))
		return &logEmailService{config: config, log: log}
	}
	return svc
}

func validateSMTPConfig(config SMTPConfig) error {
	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if config.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	htmlBody, textBody, err := renderNotification(notification, s.config.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to generate email content: %w", err)
	}

	return s.dialer.DialAndSend(s.buildMessage(notification, htmlBody, textBody))
}

func (s *SMTPEmailService) buildMessage(notification *EmailNotification, htmlBody, textBody string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.config.FromEmail, s.config.FromName)
	msg.SetAddressHeader("To", notification.RecipientEmail, notification.RecipientName)
	msg.SetHeader("Subject", notification.Subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)
	return msg
}

type logEmailService struct {
	config SMTPConfig
	log    *logger.Logger
}

func (s *logEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	_, textBody, err := renderNotification(notification, s.config.BaseURL)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "email (SMTP disabled)",
		slog.String("to", notification.RecipientEmail),
		slog.String("subject", notification.Subject),
		slog.String("body", textBody),
	)
	return nil
}

type templateData struct {
	Name    string
	BaseURL string
	Data    map[string]interface{}
}

func renderNotification(notification *EmailNotification, baseURL string) (string, string, error) {
	tmpl, ok := emailTemplates[notification.Type]
	if !ok {
		return "", "", fmt.Errorf("no template for notification type %s", notification.Type)
	}

	data := templateData{
		Name:    notification.RecipientName,
		BaseURL: baseURL,
		Data:    notification.TemplateData,
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := tmpl.html.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	if err := tmpl.text.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute text template: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

type emailTemplate struct {
	html *template.Template
	text *texttemplate.Template
}

func mustTemplate(name, html, text string) emailTemplate {
	return emailTemplate{
		html: template.Must(template.New(name).Parse(html)),
		text: texttemplate.Must(texttemplate.New(name).Parse(text)),
	}
}

var emailTemplates = map[NotificationType]emailTemplate{
	NotificationTypeWelcome: mustTemplate("welcome",
		`<p>Bonjour {{.Name}},</p>
<p>Bienvenue sur La Boutique ! Votre compte est prêt.</p>
<p><a href="{{.BaseURL}}/login">Se connecter</a></p>`,
		`Bonjour {{.Name}},

Bienvenue sur La Boutique ! Votre compte est prêt.
Connectez-vous : {{.BaseURL}}/login
`),

	NotificationTypePasswordChanged: mustTemplate("password_changed",
		`<p>Bonjour {{.Name}},</p>
<p>Le mot de passe de votre compte vient d'être modifié. Toutes vos sessions ont été fermées.</p>
<p>Si vous n'êtes pas à l'origine de ce changement, contactez-nous immédiatement.</p>`,
		`Bonjour {{.Name}},

Le mot de passe de votre compte vient d'être modifié. Toutes vos sessions ont été fermées.
Si vous n'êtes pas à l'origine de ce changement, contactez-nous immédiatement.
`),

	NotificationTypeRoleChanged: mustTemplate("role_changed",
		`<p>Bonjour {{.Name}},</p>
<p>Votre rôle est désormais : <strong>{{index .Data "role"}}</strong>.</p>
<p>Merci de vous reconnecter pour en profiter.</p>`,
		`Bonjour {{.Name}},

Votre rôle est désormais : {{index .Data "role"}}.
Merci de vous reconnecter pour en profiter.
`),
}
