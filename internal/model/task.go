package model

// Task is a row of the tasks table. UserID references users.id.
type Task struct {
	ID        int64   `json:"id"        db:"id"`
	Title     string  `json:"title"     db:"title"`
	Content   *string `json:"content"   db:"content"`
	Priority  int     `json:"priority"  db:"priority"`
	Completed bool    `json:"completed" db:"completed"`
	UserID    int64   `json:"user_id"   db:"user_id"`
	Slug      string  `json:"slug"      db:"slug"` // derived from Title
}

// TaskPatch is a sparse update. Only non-nil fields are written.
type TaskPatch struct {
	Title     *string
	Content   *string
	Priority  *int
	Completed *bool
	Slug      *string
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Priority == nil &&
		p.Completed == nil && p.Slug == nil
}
