package schema

// IssueTable represents the 'issues' table.
//
// Only the columns the reader engine touches are mapped; volume metadata is
// owned by the library CRUD.
type IssueTable struct {
	Table       string
	ID          string
	Title       string
	IssueNumber string
	FilePath    string
	IsRead      string
}

// Issue is the schema definition for issues
var Issue = IssueTable{
	Table:       "issues",
	ID:          "id",
	Title:       "title",
	IssueNumber: "issue_number",
	FilePath:    "file_path",
	IsRead:      "is_read",
}
