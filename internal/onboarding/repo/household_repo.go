package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-household-go/pkg/database"
)

// DefaultColumns are seeded for every new household, in board order.
var DefaultColumns = []string{"To Do", "In Progress", "Done"}

var (
	ErrNamesRequired = errors.New("household name and member name are required")
	ErrAlreadyMember = errors.New("user already belongs to a household")
)

// CreateHouseholdParams are the arguments of create_household_with_member.
type CreateHouseholdParams struct {
	HouseholdName string `db:"household_name" json:"household_name"`
	MemberName    string `db:"member_name" json:"member_name"`
}

// ProcedureError is a failure of create_household_with_member. Error()
// is the message raised by the procedure, without driver prefixes.
type ProcedureError struct {
	Message string
	Err     error
}

func (e *ProcedureError) Error() string { return e.Message }

func (e *ProcedureError) Unwrap() error { return e.Err }

func procedureError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &ProcedureError{Message: pqErr.Message, Err: err}
	}
	return &ProcedureError{Message: err.Error(), Err: err}
}

// HouseholdRepo provides data access for onboarding.
type HouseholdRepo struct {
	db *sqlx.DB
}

func NewHouseholdRepo(db *sqlx.DB) *HouseholdRepo { return &HouseholdRepo{db: db} }

// HasMember reports whether the user already has a member row.
func (r *HouseholdRepo) HasMember(ctx context.Context, userID string) (bool, error) {
	const q = `SELECT household_id FROM members WHERE user_id = ? LIMIT 1`
	var householdID string
	err := r.db.GetContext(ctx, &householdID, r.db.Rebind(q), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateHouseholdWithMember atomically creates a household, a member linking
// it to userID and the default columns. It returns the new household id.
//
// On Postgres this calls the create_household_with_member procedure with
// request.jwt.claim.sub set for the transaction; SQLite has no stored
// procedures so the same steps run here.
func (r *HouseholdRepo) CreateHouseholdWithMember(ctx context.Context, userID string, p CreateHouseholdParams) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", procedureError(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	var id string
	if r.db.DriverName() == database.DriverSQLite {
		id, err = createHouseholdSQLite(ctx, tx, userID, p)
	} else {
		id, err = createHouseholdPostgres(ctx, tx, userID, p)
	}
	if err != nil {
		return "", procedureError(err)
	}
	if err := tx.Commit(); err != nil {
		return "", procedureError(fmt.Errorf("commit: %w", err))
	}
	return id, nil
}

func createHouseholdPostgres(ctx context.Context, tx *sqlx.Tx, userID string, p CreateHouseholdParams) (string, error) {
	if _, err := tx.ExecContext(ctx, `SELECT set_config('request.jwt.claim.sub', $1, true)`, userID); err != nil {
		return "", err
	}
	stmt, err := tx.PrepareNamedContext(ctx,
		`SELECT create_household_with_member(household_name => :household_name, member_name => :member_name)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	var id string
	if err := stmt.GetContext(ctx, &id, p); err != nil {
		return "", err
	}
	return id, nil
}

func createHouseholdSQLite(ctx context.Context, tx *sqlx.Tx, userID string, p CreateHouseholdParams) (string, error) {
	if strings.TrimSpace(p.HouseholdName) == "" || strings.TrimSpace(p.MemberName) == "" {
		return "", ErrNamesRequired
	}
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM members WHERE user_id = ?`, userID); err != nil {
		return "", err
	}
	if n > 0 {
		return "", ErrAlreadyMember
	}

	householdID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `INSERT INTO households (id, name) VALUES (?, ?)`, householdID, p.HouseholdName); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO members (id, user_id, household_id, name) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userID, householdID, p.MemberName); err != nil {
		return "", err
	}
	for i, name := range DefaultColumns {
		if _, err := tx.ExecContext(ctx, `INSERT INTO columns (id, household_id, name, position) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), householdID, name, i+1); err != nil {
			return "", err
		}
	}
	return householdID, nil
}
