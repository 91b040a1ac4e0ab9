package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/expanders360/vendor-match-backend/config"
	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

// SMTPGateway sends notification emails. A token-bucket limiter caps
// outbound sends so a large rebuild cannot flood the mail relay.
type SMTPGateway struct {
	client  *mail.Client
	from    string
	adminTo string
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewSMTPGateway builds the gateway from SMTP config. Returns an error
// when the host is unset; use NewLogGateway in that case.
func NewSMTPGateway(cfg config.SMTPConfig, log *zap.Logger) (*SMTPGateway, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is not configured")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 60
	}

	return &SMTPGateway{
		client:  client,
		from:    cfg.From,
		adminTo: cfg.AdminEmail,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute),
		log:     log,
	}, nil
}

// SendMatchFound mails the admin inbox about a freshly created match.
func (g *SMTPGateway) SendMatchFound(ctx context.Context, match *domain.Match) error {
	subject := "New Vendor Match Found"
	body := matchFoundBody(match)
	if err := g.send(ctx, subject, body); err != nil {
		return fmt.Errorf("send match notification: %w", err)
	}
	g.log.Info("match notification sent",
		zap.Int64("project_id", match.ProjectID),
		zap.Int64("vendor_id", match.VendorID),
	)
	return nil
}

// SendSlaViolation mails the admin inbox about an overdue vendor.
func (g *SMTPGateway) SendSlaViolation(ctx context.Context, vendor domain.Vendor) error {
	subject := fmt.Sprintf("SLA Violation Alert - Vendor %s", vendor.Name)
	body := slaViolationBody(vendor)
	if err := g.send(ctx, subject, body); err != nil {
		return fmt.Errorf("send sla violation notification: %w", err)
	}
	g.log.Info("sla violation notification sent", zap.Int64("vendor_id", vendor.ID))
	return nil
}

func (g *SMTPGateway) send(ctx context.Context, subject, htmlBody string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	m := mail.NewMsg()
	if err := m.From(g.from); err != nil {
		return err
	}
	if err := m.To(g.adminTo); err != nil {
		return err
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, htmlBody)

	return g.client.DialAndSendWithContext(ctx, m)
}

func matchFoundBody(match *domain.Match) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h2>New Vendor Match Found</h2>")
	fmt.Fprintf(&b, "<p><strong>Project:</strong> %d</p>", match.ProjectID)
	if match.Vendor != nil {
		fmt.Fprintf(&b, "<p><strong>Vendor:</strong> %s</p>", match.Vendor.Name)
		fmt.Fprintf(&b, "<p><strong>Vendor Rating:</strong> %.2f/5</p>", match.Vendor.Rating)
		fmt.Fprintf(&b, "<p><strong>Response SLA:</strong> %d hours</p>", match.Vendor.ResponseSlaHours)
	}
	fmt.Fprintf(&b, "<p><strong>Match Score:</strong> %.2f</p>", match.Score)
	b.WriteString("<p>This is an automated notification. Please do not reply.</p>")
	b.WriteString("</body></html>")
	return b.String()
}

func slaViolationBody(vendor domain.Vendor) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h2>SLA Violation Alert</h2>")
	fmt.Fprintf(&b, "<p><strong>Vendor:</strong> %s</p>", vendor.Name)
	fmt.Fprintf(&b, "<p><strong>SLA Hours:</strong> %d</p>", vendor.ResponseSlaHours)
	fmt.Fprintf(&b, "<p><strong>Rating:</strong> %.2f/5</p>", vendor.Rating)
	b.WriteString("<p>Please review this vendor's responsiveness.</p>")
	b.WriteString("</body></html>")
	return b.String()
}
