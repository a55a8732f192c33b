package accounts

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
)

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;background-color:#f8f8f8;">
    <div style="max-width:600px;margin:0 auto;font-family:Arial,sans-serif;line-height:1.6;">
      <div style="background:#000000;padding:40px 20px;text-align:center;border-radius:12px 12px 0 0;">
        <h1 style="color:#ffffff;margin:0;">Verify Your Email</h1>
      </div>
      <div style="background:#ffffff;padding:40px 30px;border-radius:0 0 12px 12px;">
        <p>Hi {{.FullName}},</p>
        <p>Thank you for signing up! Please verify your email address to get started.</p>
        <div style="text-align:center;">
          <a href="{{.VerificationURL}}" style="display:inline-block;padding:14px 28px;background:#000000;color:#ffffff;text-decoration:none;border-radius:8px;font-weight:600;">Verify Email Address</a>
        </div>
        <p>Or copy and paste this URL into your browser:</p>
        <div style="background:#f5f5f5;padding:12px;border-radius:4px;word-break:break-all;">{{.VerificationURL}}</div>
        <p style="color:#666666;font-size:14px;">This link expires in 24 hours. If you did not create an account, you can ignore this email.</p>
      </div>
    </div>
  </body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;background-color:#f8f8f8;">
    <div style="max-width:600px;margin:0 auto;font-family:Arial,sans-serif;line-height:1.6;">
      <div style="background:#000000;padding:40px 20px;text-align:center;border-radius:12px 12px 0 0;">
        <h1 style="color:#ffffff;margin:0;">Welcome!</h1>
      </div>
      <div style="background:#ffffff;padding:40px 30px;border-radius:0 0 12px 12px;">
        <p>Hello {{.FullName}}!</p>
        <p>Your account is ready to go.</p>
        {{if .AppLink}}<div style="text-align:center;">
          <a href="{{.AppLink}}" style="display:inline-block;padding:14px 28px;background:#000000;color:#ffffff;text-decoration:none;border-radius:8px;font-weight:600;">Open the App</a>
        </div>{{end}}
      </div>
    </div>
  </body>
</html>`))

// SMTPNotifier delivers account mail over implicit-TLS SMTP (port 465
// style). Credentials are process-wide configuration loaded once at
// startup.
type SMTPNotifier struct {
	host      string
	port      string
	username  string
	password  string
	from      string
	appScheme string
	logger    Logger
}

type SMTPOption func(*SMTPNotifier)

func NewSMTPNotifier(host, port, username, password string, opts ...SMTPOption) *SMTPNotifier {
	n := &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     username,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}

	return n
}

// WithFromAddress overrides the sender address (defaults to the username).
func WithFromAddress(from string) SMTPOption {
	return func(n *SMTPNotifier) {
		if from != "" {
			n.from = from
		}
	}
}

// WithAppScheme sets the frontend deep-link scheme used in welcome mail,
// e.g. "myapp://home".
func WithAppScheme(scheme string) SMTPOption {
	return func(n *SMTPNotifier) {
		n.appScheme = scheme
	}
}

func WithSMTPLogger(logger Logger) SMTPOption {
	return func(n *SMTPNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

var _ Notifier = (*SMTPNotifier)(nil)

func (n *SMTPNotifier) SendVerificationEmail(ctx context.Context, account *Account, verificationURL string) error {
	body := &bytes.Buffer{}
	err := verificationTemplate.Execute(body, map[string]string{
		"FullName":        account.FullName,
		"VerificationURL": verificationURL,
	})
	if err != nil {
		return err
	}

	return n.send(ctx, account.Email, "Verify your email address", body.String())
}

func (n *SMTPNotifier) SendWelcomeEmail(ctx context.Context, account *Account) error {
	body := &bytes.Buffer{}
	err := welcomeTemplate.Execute(body, map[string]string{
		"FullName": account.FullName,
		"AppLink":  n.appScheme,
	})
	if err != nil {
		return err
	}

	return n.send(ctx, account.Email, "Welcome aboard", body.String())
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, body string) error {
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", n.from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	serverAddr := n.host + ":" + n.port

	dialer := &tls.Dialer{
		Config: &tls.Config{
			ServerName: n.host,
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.host)
	if err != nil {
		return err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", n.username, n.password, n.host)
	if err := client.Auth(auth); err != nil {
		return err
	}

	if err := client.Mail(n.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	n.logger.Debug("email sent", "to", to, "subject", subject)

	return nil
}
