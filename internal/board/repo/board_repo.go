package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-household-go/internal/board/entity"
)

// ErrTaskRejected is returned when the user is not a member of the target
// household or the column belongs to another household.
var ErrTaskRejected = errors.New("task rejected: household or column not accessible")

// BoardRepo provides data access for the board tables using sqlx. Queries
// use ? placeholders and are rebound for the connected driver.
type BoardRepo struct {
	db *sqlx.DB
}

func NewBoardRepo(db *sqlx.DB) *BoardRepo { return &BoardRepo{db: db} }

// FindMemberByUser returns the user's member row joined with its household,
// or sql.ErrNoRows.
func (r *BoardRepo) FindMemberByUser(ctx context.Context, userID string) (*entity.Member, error) {
	const q = `SELECT m.id, m.name, m.household_id, h.id AS "household.id", h.name AS "household.name"
		FROM members m JOIN households h ON h.id = m.household_id
		WHERE m.user_id = ? LIMIT 1`
	var m entity.Member
	if err := r.db.GetContext(ctx, &m, r.db.Rebind(q), userID); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListColumns returns the household's columns by position.
func (r *BoardRepo) ListColumns(ctx context.Context, householdID string) ([]entity.Column, error) {
	const q = `SELECT id, household_id, name, position FROM columns WHERE household_id = ? ORDER BY position`
	var cols []entity.Column
	if err := r.db.SelectContext(ctx, &cols, r.db.Rebind(q), householdID); err != nil {
		return nil, err
	}
	return cols, nil
}

type taskRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	ColumnID     string         `db:"column_id"`
	HouseholdID  string         `db:"household_id"`
	AssigneeID   sql.NullString `db:"assignee_id"`
	DueDate      sql.NullString `db:"due_date"`
	Position     int            `db:"position"`
	Archived     bool           `db:"archived"`
	AssigneeRef  sql.NullString `db:"assignee_ref_id"`
	AssigneeName sql.NullString `db:"assignee_name"`
}

func (t taskRow) entity() entity.Task {
	out := entity.Task{
		ID:          t.ID,
		Title:       t.Title,
		ColumnID:    t.ColumnID,
		HouseholdID: t.HouseholdID,
		Position:    t.Position,
		Archived:    t.Archived,
	}
	if t.AssigneeID.Valid {
		v := t.AssigneeID.String
		out.AssigneeID = &v
	}
	if t.DueDate.Valid {
		v := t.DueDate.String
		out.DueDate = &v
	}
	if t.AssigneeRef.Valid {
		out.Assignee = &entity.MemberRef{ID: t.AssigneeRef.String, Name: t.AssigneeName.String}
	}
	return out
}

// ListActiveTasks returns the household's non-archived tasks by position,
// each with its assignee (nil when unassigned).
func (r *BoardRepo) ListActiveTasks(ctx context.Context, householdID string) ([]entity.Task, error) {
	const q = `SELECT t.id, t.title, t.column_id, t.household_id, t.assignee_id,
			CAST(t.due_date AS TEXT) AS due_date, t.position, t.archived,
			a.id AS assignee_ref_id, a.name AS assignee_name
		FROM tasks t LEFT JOIN members a ON a.id = t.assignee_id
		WHERE t.household_id = ? AND t.archived = FALSE
		ORDER BY t.position`
	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), householdID); err != nil {
		return nil, err
	}
	tasks := make([]entity.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.entity())
	}
	return tasks, nil
}

// ListMembers returns id and name of every member of the household.
func (r *BoardRepo) ListMembers(ctx context.Context, householdID string) ([]entity.MemberRef, error) {
	const q = `SELECT id, name FROM members WHERE household_id = ?`
	var members []entity.MemberRef
	if err := r.db.SelectContext(ctx, &members, r.db.Rebind(q), householdID); err != nil {
		return nil, err
	}
	return members, nil
}

// LastTaskPosition returns the highest position in the column, archived
// tasks included. found is false for an empty column.
func (r *BoardRepo) LastTaskPosition(ctx context.Context, columnID string) (position int, found bool, err error) {
	const q = `SELECT position FROM tasks WHERE column_id = ? ORDER BY position DESC LIMIT 1`
	err = r.db.GetContext(ctx, &position, r.db.Rebind(q), columnID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return position, true, nil
}

// InsertTask writes t after checking that userID belongs to t.HouseholdID
// and that the column is in that household.
func (r *BoardRepo) InsertTask(ctx context.Context, userID string, t entity.NewTask) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const guard = `SELECT COUNT(*) FROM members m JOIN columns c ON c.household_id = m.household_id
		WHERE m.user_id = ? AND m.household_id = ? AND c.id = ?`
	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(guard), userID, t.HouseholdID, t.ColumnID); err != nil {
		return fmt.Errorf("check household access: %w", err)
	}
	if n == 0 {
		return ErrTaskRejected
	}

	const ins = `INSERT INTO tasks (id, title, column_id, household_id, assignee_id, due_date, position, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, FALSE)`
	if _, err := tx.ExecContext(ctx, tx.Rebind(ins),
		t.ID, t.Title, t.ColumnID, t.HouseholdID, t.AssigneeID, t.DueDate, t.Position); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return tx.Commit()
}
