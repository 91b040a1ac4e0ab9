package http

import "github.com/expanders360/vendor-match-backend/internal/matching/service"

// Handler bundles the dependencies for matching HTTP endpoints.
type Handler struct {
	svc *service.MatchingService
}

func New(svc *service.MatchingService) *Handler {
	return &Handler{svc: svc}
}
