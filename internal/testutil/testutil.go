// Package testutil sets up throwaway SQLite databases with the household
// schema and seeds them for repository and handler tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-household-go/pkg/database"
)

// NewDB returns an in-memory SQLite database with the full schema. It is
// closed when the test ends.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(database.Config{DSN: ":memory:", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

// Household is a seeded household with one member and three columns.
type Household struct {
	ID       string
	Name     string
	UserID   uuid.UUID
	MemberID string
	Columns  []string
}

// SeedHousehold inserts a household, a member for a fresh user and the
// columns To Do, In Progress and Done at positions 1..3.
func SeedHousehold(t *testing.T, db *sqlx.DB, name, memberName string) Household {
	t.Helper()
	h := Household{ID: uuid.NewString(), Name: name}
	exec(t, db, `INSERT INTO households (id, name) VALUES (?, ?)`, h.ID, name)
	h.MemberID, h.UserID = AddMember(t, db, h.ID, memberName)
	for i, col := range []string{"To Do", "In Progress", "Done"} {
		id := uuid.NewString()
		exec(t, db, `INSERT INTO columns (id, household_id, name, position) VALUES (?, ?, ?, ?)`, id, h.ID, col, i+1)
		h.Columns = append(h.Columns, id)
	}
	return h
}

// AddMember adds a member for a fresh user to the household.
func AddMember(t *testing.T, db *sqlx.DB, householdID, name string) (memberID string, userID uuid.UUID) {
	t.Helper()
	memberID, userID = uuid.NewString(), uuid.New()
	exec(t, db, `INSERT INTO members (id, user_id, household_id, name) VALUES (?, ?, ?, ?)`,
		memberID, userID.String(), householdID, name)
	return memberID, userID
}

// Task describes a task row to seed.
type Task struct {
	Title      string
	ColumnID   string
	AssigneeID *string
	DueDate    *string
	Position   int
	Archived   bool
}

// AddTask inserts a task into the household and returns its id.
func AddTask(t *testing.T, db *sqlx.DB, householdID string, task Task) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO tasks (id, title, column_id, household_id, assignee_id, due_date, position, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, task.Title, task.ColumnID, householdID, task.AssigneeID, task.DueDate, task.Position, task.Archived)
	return id
}

func exec(t *testing.T, db *sqlx.DB, q string, args ...any) {
	t.Helper()
	if _, err := db.Exec(db.Rebind(q), args...); err != nil {
		t.Fatalf("seed %q: %v", q, err)
	}
}
