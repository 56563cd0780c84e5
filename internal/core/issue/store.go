// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package issue

import "context"

// # Issue Data Access

// Store defines the data access contract for issue records.
//
// Issues are created by the library CRUD; this service only resolves them and
// flips their read flag.
type Store interface {

	/*
		FindByID returns the issue with the given ID.

		Returns:
		  - *Issue: Record including its archive path
		  - error: apperr NOT_FOUND if missing
	*/
	FindByID(context context.Context, id int) (*Issue, error)

	/*
		SetRead stores the read flag of an issue.

		Returns:
		  - error: apperr NOT_FOUND if missing
	*/
	SetRead(context context.Context, id int, isRead bool) error
}
