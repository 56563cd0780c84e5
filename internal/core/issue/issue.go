// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package issue

// # Domain Models

// Issue is the slice of an issue record this service reads.
type Issue struct {
	ID          int    `json:"id"`
	IssueNumber int    `json:"issue_number"`
	Title       string `json:"title,omitempty"`
	FilePath    string `json:"-"`
	IsRead      bool   `json:"is_read"`
}

// PageRef is one entry of the page list returned to readers.
type PageRef struct {
	Number      int    `json:"number"`
	EntryName   string `json:"entry_name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// PageList is the ordered page list of an issue.
type PageList struct {
	IssueID    int       `json:"issue_id"`
	TotalPages int       `json:"total_pages"`
	Pages      []PageRef `json:"pages"`
}

// ReadStatus is the read flag of an issue.
type ReadStatus struct {
	IssueID int  `json:"issue_id"`
	IsRead  bool `json:"is_read"`
}
