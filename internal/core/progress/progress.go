// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package progress

import "time"

// # Domain Model

// Progress is the resumable reading position of one issue.
//
// IsCompleted is a snapshot of CurrentPage == TotalPages taken at the last
// write; moving back from the last page clears it.
type Progress struct {
	IssueID     int        `json:"issue_id"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	IsCompleted bool       `json:"is_completed"`
	LastReadAt  *time.Time `json:"last_read_at,omitempty"`
}

// Default is the position reported for an issue that has never been opened.
// It is synthesized on read and never stored.
func Default(issueID int) *Progress {
	return &Progress{
		IssueID:     issueID,
		CurrentPage: 1,
		TotalPages:  0,
		IsCompleted: false,
	}
}
