// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package progress

import "context"

// # Reading Progress Data Access

// Store defines the data access contract for reading progress.
type Store interface {

	/*
		FindByIssue returns the stored position of an issue.

		Returns:
		  - *Progress: The stored row
		  - error: apperr NOT_FOUND when the issue has no row yet
	*/
	FindByIssue(context context.Context, issueID int) (*Progress, error)

	/*
		Upsert inserts or fully overwrites the row of an issue in one statement.

		Description: IsCompleted and LastReadAt are recomputed on every write.
		Concurrent calls for the same issue serialize on the row; the last one
		to commit wins.

		Returns:
		  - *Progress: The row as stored
		  - error: apperr NOT_FOUND when the issue does not exist
	*/
	Upsert(context context.Context, issueID, currentPage, totalPages int) (*Progress, error)
}
