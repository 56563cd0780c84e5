// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package issue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/daviddhdev/kometa/internal/archive"
	"github.com/daviddhdev/kometa/internal/platform/apperr"
	"github.com/daviddhdev/kometa/internal/platform/constants"
	"github.com/daviddhdev/kometa/pkg/slug"
)

// # Service Layer

// Service resolves issues to their archives and serves their pages.
type Service struct {
	store       Store
	pages       *archive.Reader
	libraryRoot string
	logger      *slog.Logger
}

// NewService constructs a new [Service]. Relative archive paths are resolved
// against libraryRoot.
func NewService(store Store, pages *archive.Reader, libraryRoot string, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		pages:       pages,
		libraryRoot: libraryRoot,
		logger:      logger,
	}
}

// PageURL is the API path a page is fetched from by entry name.
func PageURL(issueID int, entryName string) string {
	return fmt.Sprintf("%s/issues/%d/page/%s", constants.APIPrefix, issueID, url.PathEscape(entryName))
}

/*
Resolve loads an issue and the filesystem path of its archive.

Returns:
  - error: NOT_FOUND when the issue does not exist or has no archive
*/
func (service *Service) Resolve(context context.Context, id int) (*Issue, string, error) {
	issue, err := service.store.FindByID(context, id)
	if err != nil {
		return nil, "", err
	}
	if issue.FilePath == "" {
		return nil, "", apperr.NotFound(resourceIssue)
	}

	archivePath := issue.FilePath
	if !filepath.IsAbs(archivePath) {
		archivePath = filepath.Join(service.libraryRoot, archivePath)
	}
	return issue, archivePath, nil
}

/*
ListPages returns the ordered page list of an issue.

Description: References are built straight from the archive index, so they
are 1-based and contiguous. An archive without images yields an empty list.
*/
func (service *Service) ListPages(context context.Context, id int) (*PageList, error) {
	_, archivePath, err := service.Resolve(context, id)
	if err != nil {
		return nil, err
	}

	index, err := service.pages.Index(context, archivePath)
	if err != nil {
		return nil, translate(err, "")
	}

	refs := make([]PageRef, 0, index.Len())
	for _, entry := range index.Pages {
		refs = append(refs, PageRef{
			Number:      entry.PageNumber(),
			EntryName:   entry.EntryName,
			ContentType: entry.ContentType(),
			URL:         PageURL(id, entry.EntryName),
		})
	}

	return &PageList{IssueID: id, TotalPages: len(refs), Pages: refs}, nil
}

// Page reads one page of an issue by number or entry name.
func (service *Service) Page(context context.Context, id int, selector archive.Selector) (*archive.Page, error) {
	_, archivePath, err := service.Resolve(context, id)
	if err != nil {
		return nil, err
	}

	page, err := service.pages.ReadPage(context, archivePath, selector)
	if err != nil {
		reference := selector.EntryName
		if reference == "" {
			reference = strconv.Itoa(selector.Number)
		}
		return nil, translate(err, reference)
	}
	return page, nil
}

// Download returns the archive path of an issue and the file name it is
// offered to the browser under.
func (service *Service) Download(context context.Context, id int) (string, string, error) {
	issue, archivePath, err := service.Resolve(context, id)
	if err != nil {
		return "", "", err
	}

	fallback := fmt.Sprintf("issue-%d", issue.IssueNumber)
	return archivePath, slug.FileName(issue.Title, fallback, archivePath), nil
}

// ReadStatus returns the read flag of an issue.
func (service *Service) ReadStatus(context context.Context, id int) (*ReadStatus, error) {
	issue, err := service.store.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	return &ReadStatus{IssueID: issue.ID, IsRead: issue.IsRead}, nil
}

/*
SetReadStatus stores the read flag of an issue.

Description: Used both for manual toggles and for the one-time completion
signal of a reader session; the two are not distinguished here.
*/
func (service *Service) SetReadStatus(context context.Context, id int, isRead bool) (*ReadStatus, error) {
	if err := service.store.SetRead(context, id, isRead); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "issue_read_status_set",
		slog.Int("issue_id", id),
		slog.Bool("is_read", isRead),
	)
	return &ReadStatus{IssueID: id, IsRead: isRead}, nil
}

// translate maps archive sentinels onto API errors.
// respond.Error logs the cause of the unreadable case.
func translate(err error, reference string) error {
	switch {
	case errors.Is(err, archive.ErrPageNotFound):
		return apperr.PageNotFound(reference)
	case errors.Is(err, archive.ErrArchiveUnreadable):
		return apperr.ArchiveUnreadable(err)
	default:
		return apperr.Internal(err)
	}
}
