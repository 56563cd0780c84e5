package schema

// ReadingProgressTable represents the 'reading_progress' table
type ReadingProgressTable struct {
	Table       string
	ID          string
	IssueID     string
	CurrentPage string
	TotalPages  string
	IsCompleted string
	LastReadAt  string
}

// ReadingProgress is the schema definition for reading_progress
var ReadingProgress = ReadingProgressTable{
	Table:       "reading_progress",
	ID:          "id",
	IssueID:     "issue_id",
	CurrentPage: "current_page",
	TotalPages:  "total_pages",
	IsCompleted: "is_completed",
	LastReadAt:  "last_read_at",
}

// Columns lists the columns of a progress row in scan order.
func (t ReadingProgressTable) Columns() []string {
	return []string{t.IssueID, t.CurrentPage, t.TotalPages, t.IsCompleted, t.LastReadAt}
}
