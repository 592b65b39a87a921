package board

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-household-go/internal/board/entity"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/page"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/session"
)

// Repository is the data access the home page needs.
type Repository interface {
	FindMemberByUser(ctx context.Context, userID string) (*entity.Member, error)
	ListColumns(ctx context.Context, householdID string) ([]entity.Column, error)
	ListActiveTasks(ctx context.Context, householdID string) ([]entity.Task, error)
	ListMembers(ctx context.Context, householdID string) ([]entity.MemberRef, error)
	LastTaskPosition(ctx context.Context, columnID string) (int, bool, error)
	InsertTask(ctx context.Context, userID string, t entity.NewTask) error
}

// Service implements the home page load and its createTask action.
type Service struct {
	repo   Repository
	logger *zap.SugaredLogger
	newID  func() string
}

func NewService(repo Repository, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo, logger: logger, newID: uuid.NewString}
}

// Load builds the board for the signed-in user. Read failures on columns,
// tasks and members are logged and rendered as empty lists so the board
// stays usable; a failed member lookup is treated as "no household yet".
func (s *Service) Load(ctx context.Context, user *session.User) page.Result {
	if user == nil {
		return page.Redirect(page.LoginPath)
	}
	userID := user.ID.String()

	member, err := s.repo.FindMemberByUser(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warnw("member lookup failed", "user_id", userID, "err", err)
	}
	if err != nil || member == nil {
		s.logger.Debugw("no member found, redirecting to onboarding", "user_id", userID)
		return page.Redirect(page.OnboardingPath)
	}
	s.logger.Debugw("member found", "user_id", userID, "member_id", member.ID, "household_id", member.HouseholdID)

	householdID := member.HouseholdID
	columns, err := s.repo.ListColumns(ctx, householdID)
	if err != nil {
		s.logger.Warnw("list columns failed", "household_id", householdID, "err", err)
	}
	tasks, err := s.repo.ListActiveTasks(ctx, householdID)
	if err != nil {
		s.logger.Warnw("list tasks failed", "household_id", householdID, "err", err)
	}
	members, err := s.repo.ListMembers(ctx, householdID)
	if err != nil {
		s.logger.Warnw("list members failed", "household_id", householdID, "err", err)
	}

	return page.Ok(entity.Board{
		Member:    *member,
		Household: member.Household,
		Columns:   orEmpty(columns),
		Tasks:     orEmpty(tasks),
		Members:   orEmpty(members),
	})
}

// Success is the body of a successful createTask.
type Success struct {
	Success bool `json:"success"`
}

// CreateTask appends a task to the end of a column.
//
// Form fields: title, columnId, householdId (required); assigneeId, dueDate
// (optional, empty means absent).
func (s *Service) CreateTask(ctx context.Context, user *session.User, read page.FormFunc) page.Result {
	if user == nil {
		return page.Fail(http.StatusUnauthorized, "Not authenticated")
	}
	form, err := read()
	if err != nil {
		return page.InvalidForm()
	}
	req, ok := form.Required("title", "columnId", "householdId")
	if !ok {
		return page.Fail(http.StatusBadRequest, "Missing required fields")
	}
	title, columnID, householdID := req[0], req[1], req[2]

	last, found, err := s.repo.LastTaskPosition(ctx, columnID)
	if err != nil {
		s.logger.Warnw("last task position lookup failed", "column_id", columnID, "err", err)
		found = false
	}

	t := entity.NewTask{
		ID:          s.newID(),
		Title:       title,
		ColumnID:    columnID,
		HouseholdID: householdID,
		AssigneeID:  form.Field("assigneeId").Ptr(),
		DueDate:     form.Field("dueDate").Ptr(),
		Position:    NextPosition(last, found),
	}
	if err := s.repo.InsertTask(ctx, user.ID.String(), t); err != nil {
		s.logger.Errorw("create task failed", "user_id", user.ID.String(), "column_id", columnID, "household_id", householdID, "err", err)
		return page.Fail(http.StatusInternalServerError, "Failed to create task")
	}
	s.logger.Debugw("task created", "task_id", t.ID, "column_id", columnID, "position", t.Position)
	return page.Ok(Success{Success: true})
}

// NextPosition is one past the column's current maximum, or 1 for an empty
// column.
func NextPosition(last int, found bool) int {
	if !found {
		return 1
	}
	return last + 1
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
