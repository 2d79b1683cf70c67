package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/yamato-h/project-tracker-api/internal/config"
	"github.com/yamato-h/project-tracker-api/internal/logger"
	"gopkg.in/gomail.v2"
)

// Mailer delivers invitation email. Kept as an interface so tests can record
// sends without an SMTP server.
type Mailer interface {
	SendInvitation(to, teamName, role, acceptURL string) error
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Team Invitation</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .button { display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>You have been invited to join {{.TeamName}}</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>You have been invited to join the team <strong>{{.TeamName}}</strong> as a <strong>{{.Role}}</strong>.</p>

        <p style="text-align: center;">
            <a href="{{.AcceptURL}}" class="button">Accept Invitation</a>
        </p>

        <p>Or copy and paste this link into your browser:<br>
        <small>{{.AcceptURL}}</small></p>
    </div>

    <div class="footer">
        <p>If you weren't expecting this invitation, you can safely ignore this email.</p>
        <p>© {{.Year}} Project Tracker. All rights reserved.</p>
    </div>
</body>
</html>`))

// SMTPMailer sends email through an SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer creates a Mailer from the application config.
func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port %q: %w", cfg.SMTPPort, err)
	}

	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     port,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.FromEmail,
	}, nil
}

// SendInvitation renders the invitation template and delivers it.
func (m *SMTPMailer) SendInvitation(to, teamName, role, acceptURL string) error {
	var body bytes.Buffer
	err := invitationTemplate.Execute(&body, map[string]interface{}{
		"TeamName":  teamName,
		"Role":      role,
		"AcceptURL": acceptURL,
		"Year":      time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render invitation email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Invitation to join %s", teamName))
	msg.SetBody("text/html", body.String())

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}

	logger.Info().Str("to", to).Str("team", teamName).Msg("invitation email sent")
	return nil
}
