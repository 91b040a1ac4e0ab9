// Package notification delivers match and SLA alerts. Delivery is best
// effort: callers log failures and move on, the core never retries.
package notification

import (
	"context"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

// Gateway is the delivery contract consumed by the matching core. The
// transport behind it (SMTP, queue) is opaque to callers.
type Gateway interface {
	SendMatchFound(ctx context.Context, match *domain.Match) error
	SendSlaViolation(ctx context.Context, vendor domain.Vendor) error
}
