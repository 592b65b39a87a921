package entity

// Household is the tenant that owns columns, tasks and members.
type Household struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Member is a user's membership record within exactly one household.
type Member struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	HouseholdID string    `db:"household_id" json:"household_id"`
	Household   Household `db:"household" json:"household"`
}

// MemberRef is the id/name projection used for member lists and assignees.
type MemberRef struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Column is an ordered lane of tasks on the board.
type Column struct {
	ID          string `db:"id" json:"id"`
	HouseholdID string `db:"household_id" json:"household_id"`
	Name        string `db:"name" json:"name"`
	Position    int    `db:"position" json:"position"`
}

// Task is a unit of work in a column, optionally assigned to a member.
// DueDate is a calendar date (YYYY-MM-DD) or nil.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ColumnID    string     `json:"column_id"`
	HouseholdID string     `json:"household_id"`
	AssigneeID  *string    `json:"assignee_id"`
	DueDate     *string    `json:"due_date"`
	Position    int        `json:"position"`
	Archived    bool       `json:"archived"`
	Assignee    *MemberRef `json:"assignee"`
}

// NewTask is the row written by the createTask action.
type NewTask struct {
	ID          string
	Title       string
	ColumnID    string
	HouseholdID string
	AssigneeID  *string
	DueDate     *string
	Position    int
}

// Board is the data the home page renders.
type Board struct {
	Member    Member      `json:"member"`
	Household Household   `json:"household"`
	Columns   []Column    `json:"columns"`
	Tasks     []Task      `json:"tasks"`
	Members   []MemberRef `json:"members"`
}
