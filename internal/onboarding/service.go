package onboarding

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-household-go/internal/onboarding/repo"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/page"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/session"
)

// Repository is the data access onboarding needs.
type Repository interface {
	HasMember(ctx context.Context, userID string) (bool, error)
	CreateHouseholdWithMember(ctx context.Context, userID string, p repo.CreateHouseholdParams) (string, error)
}

// Service implements the onboarding page load and its default action.
type Service struct {
	repo   Repository
	logger *zap.SugaredLogger
}

func NewService(r Repository, logger *zap.SugaredLogger) *Service {
	return &Service{repo: r, logger: logger}
}

// Load shows the onboarding form only to signed-in users without a household.
func (s *Service) Load(ctx context.Context, user *session.User) page.Result {
	if user == nil {
		return page.Redirect(page.LoginPath)
	}
	has, err := s.repo.HasMember(ctx, user.ID.String())
	if err != nil {
		s.logger.Warnw("member lookup failed", "user_id", user.ID.String(), "err", err)
	}
	if has {
		return page.Redirect(page.HomePath)
	}
	return page.Ok(struct{}{})
}

// CreateHousehold creates the user's household and first member, then
// sends them to the board. Form fields: householdName, memberName.
func (s *Service) CreateHousehold(ctx context.Context, user *session.User, read page.FormFunc) page.Result {
	if user == nil {
		return page.Fail(http.StatusUnauthorized, "Not authenticated")
	}
	form, err := read()
	if err != nil {
		return page.InvalidForm()
	}
	vals, ok := form.Required("householdName", "memberName")
	if !ok {
		return page.Fail(http.StatusBadRequest, "Please fill in all fields")
	}
	params := repo.CreateHouseholdParams{HouseholdName: vals[0], MemberName: vals[1]}
	userID := user.ID.String()

	s.logger.Infow("creating household", "household_name", params.HouseholdName, "user_id", userID)
	householdID, err := s.repo.CreateHouseholdWithMember(ctx, userID, params)
	if err != nil {
		s.logger.Errorw("onboarding failed", "user_id", userID, "err", err)
		return page.Fail(http.StatusInternalServerError, "Failed to create household: "+err.Error())
	}
	s.logger.Infow("household created", "household_id", householdID, "user_id", userID)
	return page.Redirect(page.HomePath)
}
