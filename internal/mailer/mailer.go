package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"executive-portfolio-api/internal/config"
	"executive-portfolio-api/internal/logger"
)

// Mailer delivers admin responses to visitors over SMTP. A circuit breaker
// shields the worker from a flapping relay, and the rate limiter keeps the
// send rate inside typical provider caps.
type Mailer struct {
	config  *config.Config
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// ResponseEmailData feeds the response e-mail templates.
type ResponseEmailData struct {
	FullName     string
	Purpose      string
	OriginalText string
	ResponseText string
	RespondedBy  string
}

func New(cfg *config.Config) *Mailer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "SMTPRelay",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// 1 mail/sec sustained, short bursts allowed
	limiter := rate.NewLimiter(rate.Limit(1), 5)

	return &Mailer{
		config:  cfg,
		breaker: breaker,
		limiter: limiter,
	}
}

// Configured reports whether an SMTP relay is set up. Without one, response
// e-mail delivery is skipped and only the stored response record exists.
func (m *Mailer) Configured() bool {
	return m.config.SMTPHost != "" && m.config.SMTPFrom != ""
}

// SendResponse e-mails the admin's reply to the visitor who submitted the
// message. Breaker-open is returned to the caller so queued deliveries retry.
func (m *Mailer) SendResponse(recipient string, data ResponseEmailData) error {
	if !m.Configured() {
		return fmt.Errorf("smtp relay not configured")
	}

	if !m.limiter.Allow() {
		return fmt.Errorf("outbound mail rate exceeded")
	}

	subject, htmlBody, textBody, err := renderResponseEmail(data)
	if err != nil {
		return fmt.Errorf("failed to render response email: %w", err)
	}

	_, err = m.breaker.Execute(func() (interface{}, error) {
		return nil, m.sendEmail([]string{recipient}, subject, htmlBody, textBody)
	})
	if err == gobreaker.ErrOpenState {
		return fmt.Errorf("smtp relay unavailable: %w", err)
	}
	return err
}

func (m *Mailer) sendEmail(recipients []string, subject, htmlBody, textBody string) error {
	auth := smtp.PlainAuth("", m.config.SMTPUser, m.config.SMTPPass, m.config.SMTPHost)

	message := fmt.Sprintf(`From: %s
To: %s
Subject: %s
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="boundary123"

--boundary123
Content-Type: text/plain; charset=UTF-8

%s

--boundary123
Content-Type: text/html; charset=UTF-8

%s

--boundary123--`,
		m.config.SMTPFrom,
		recipients[0],
		subject,
		textBody,
		htmlBody)

	addr := fmt.Sprintf("%s:%s", m.config.SMTPHost, m.config.SMTPPort)
	return smtp.SendMail(addr, auth, m.config.SMTPFrom, recipients, []byte(message))
}

func renderResponseEmail(data ResponseEmailData) (subject, htmlBody, textBody string, err error) {
	subjectTpl := "Re: Your message regarding {{.Purpose}}"
	htmlTpl := responseHTMLTemplate()
	textTpl := responseTextTemplate()

	subjectT, _ := template.New("subject").Parse(subjectTpl)
	htmlT, _ := template.New("html").Parse(htmlTpl)
	textT, _ := template.New("text").Parse(textTpl)

	var subjectBuf, htmlBuf, textBuf bytes.Buffer

	if err := subjectT.Execute(&subjectBuf, data); err != nil {
		return "", "", "", err
	}
	if err := htmlT.Execute(&htmlBuf, data); err != nil {
		return "", "", "", err
	}
	if err := textT.Execute(&textBuf, data); err != nil {
		return "", "", "", err
	}

	return subjectBuf.String(), htmlBuf.String(), textBuf.String(), nil
}

func responseHTMLTemplate() string {
	return `<html><body>
<p>Hello {{.FullName}},</p>
<p>Thank you for reaching out. Here is our response to your message:</p>
<blockquote>{{.ResponseText}}</blockquote>
<p>Your original message:</p>
<blockquote style="color: #666;">{{.OriginalText}}</blockquote>
<p>Best regards,<br>{{.RespondedBy}}</p>
</body></html>`
}

func responseTextTemplate() string {
	return `Hello {{.FullName}},

Thank you for reaching out. Here is our response to your message:

{{.ResponseText}}

Your original message:

{{.OriginalText}}

Best regards,
{{.RespondedBy}}`
}
