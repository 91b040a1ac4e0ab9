package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

// LogGateway is the delivery fallback when SMTP is not configured:
// every notification is logged instead of mailed.
type LogGateway struct {
	log *zap.Logger
}

func NewLogGateway(log *zap.Logger) *LogGateway {
	return &LogGateway{log: log}
}

func (g *LogGateway) SendMatchFound(_ context.Context, match *domain.Match) error {
	fields := []zap.Field{
		zap.Int64("project_id", match.ProjectID),
		zap.Int64("vendor_id", match.VendorID),
		zap.Float64("score", match.Score),
	}
	if match.Vendor != nil {
		fields = append(fields, zap.String("vendor_name", match.Vendor.Name))
	}
	g.log.Info("match found (mock notification)", fields...)
	return nil
}

func (g *LogGateway) SendSlaViolation(_ context.Context, vendor domain.Vendor) error {
	g.log.Warn("sla violation (mock notification)",
		zap.Int64("vendor_id", vendor.ID),
		zap.String("vendor_name", vendor.Name),
		zap.Int("response_sla_hours", vendor.ResponseSlaHours),
	)
	return nil
}
