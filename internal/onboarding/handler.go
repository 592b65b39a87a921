package onboarding

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-household-go/internal/onboarding/repo"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/page"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/session"
)

// Handler exposes GET /onboarding and its default POST action.
type Handler struct {
	svc      *Service
	sessions session.Resolver
	logger   *zap.SugaredLogger
}

func NewHandler(db *sqlx.DB, sessions session.Resolver, logger *zap.SugaredLogger) *Handler {
	svc := NewService(repo.NewHouseholdRepo(db), logger)
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

func (h *Handler) Page() *page.Page {
	return &page.Page{
		Route: page.OnboardingPath,
		Load: func(ctx context.Context, r *http.Request) page.Result {
			return h.svc.Load(ctx, h.user(r))
		},
		Actions: map[string]page.ActionFunc{
			page.DefaultAction: func(ctx context.Context, r *http.Request, form page.FormFunc) page.Result {
				return h.svc.CreateHousehold(ctx, h.user(r), form)
			},
		},
		Logger: h.logger,
	}
}

func (h *Handler) user(r *http.Request) *session.User {
	u, ok := h.sessions.Resolve(r)
	if !ok {
		return nil
	}
	return &u
}
