package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the household tables if they do not exist.
// On Postgres it also (re)creates the create_household_with_member procedure.
// This is a convenience for early development; prefer migrations in production.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	ddl := postgresSchema
	if db.DriverName() == DriverSQLite {
		ddl = sqliteSchema
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS households (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  name TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS members (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  user_id UUID NOT NULL UNIQUE,
  household_id UUID NOT NULL REFERENCES households(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_household_id ON members(household_id);

CREATE TABLE IF NOT EXISTS columns (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  household_id UUID NOT NULL REFERENCES households(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  position INT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_columns_household_id ON columns(household_id, position);

CREATE TABLE IF NOT EXISTS tasks (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  title TEXT NOT NULL,
  column_id UUID NOT NULL REFERENCES columns(id) ON DELETE CASCADE,
  household_id UUID NOT NULL REFERENCES households(id) ON DELETE CASCADE,
  assignee_id UUID REFERENCES members(id) ON DELETE SET NULL,
  due_date DATE,
  position INT NOT NULL,
  archived BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_tasks_household_id ON tasks(household_id, archived, position);
CREATE INDEX IF NOT EXISTS idx_tasks_column_id ON tasks(column_id, position);

-- request.jwt.claim.sub carries the calling user, as set by PostgREST or by
-- the service inside the calling transaction.
CREATE OR REPLACE FUNCTION create_household_with_member(household_name TEXT, member_name TEXT)
RETURNS UUID
LANGUAGE plpgsql
AS $$
DECLARE
  uid UUID := NULLIF(current_setting('request.jwt.claim.sub', true), '')::UUID;
  new_household_id UUID;
BEGIN
  IF uid IS NULL THEN
    RAISE EXCEPTION 'not authenticated';
  END IF;
  IF COALESCE(TRIM(household_name), '') = '' OR COALESCE(TRIM(member_name), '') = '' THEN
    RAISE EXCEPTION 'household name and member name are required';
  END IF;
  IF EXISTS (SELECT 1 FROM members WHERE user_id = uid) THEN
    RAISE EXCEPTION 'user already belongs to a household';
  END IF;

  INSERT INTO households (name) VALUES (household_name) RETURNING id INTO new_household_id;
  INSERT INTO members (user_id, household_id, name) VALUES (uid, new_household_id, member_name);
  INSERT INTO columns (household_id, name, position) VALUES
    (new_household_id, 'To Do', 1),
    (new_household_id, 'In Progress', 2),
    (new_household_id, 'Done', 3);

  RETURN new_household_id;
END;
$$;
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS households (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS members (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  household_id TEXT NOT NULL REFERENCES households(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_members_household_id ON members(household_id);

CREATE TABLE IF NOT EXISTS columns (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL REFERENCES households(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_columns_household_id ON columns(household_id, position);

CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  column_id TEXT NOT NULL REFERENCES columns(id) ON DELETE CASCADE,
  household_id TEXT NOT NULL REFERENCES households(id) ON DELETE CASCADE,
  assignee_id TEXT REFERENCES members(id) ON DELETE SET NULL,
  due_date TEXT,
  position INTEGER NOT NULL,
  archived INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_household_id ON tasks(household_id, archived, position);
CREATE INDEX IF NOT EXISTS idx_tasks_column_id ON tasks(column_id, position);
`
