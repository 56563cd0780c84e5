// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package issue serves the pages and read flag of comic issues.

# Routing

  - GET /issues/{id}/pages: ordered page references.
  - GET /issues/{id}/pages/{number}: page bytes by 1-based number.
  - GET /issues/{id}/page/{entryName}: page bytes by archive entry name.
  - GET, PUT /issues/{id}/read: read flag.
  - GET /issues/{id}/download: the whole archive.

Page bytes are immutable for a given archive and are served with a year-long
cache lifetime and an ETag for conditional requests.
*/
package issue

import (
	"bytes"
	"mime"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/daviddhdev/kometa/internal/archive"
	"github.com/daviddhdev/kometa/internal/platform/apperr"
	"github.com/daviddhdev/kometa/internal/platform/constants"
	requestutil "github.com/daviddhdev/kometa/internal/platform/request"
	"github.com/daviddhdev/kometa/internal/platform/respond"
	"github.com/daviddhdev/kometa/internal/platform/validate"
)

const FieldIsRead = "is_read"

// Handler implements the HTTP layer for issues.
type Handler struct {
	service *Service
}

// NewHandler constructs a new issue [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches issue endpoints to an authenticated router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Get("/issues/{id}/pages", handler.ListPages)
	api.Get("/issues/{id}/pages/{number}", handler.GetPageByNumber)
	api.Get("/issues/{id}/page/*", handler.GetPageByName)
	api.Get("/issues/{id}/read", handler.GetReadStatus)
	api.Put("/issues/{id}/read", handler.PutReadStatus)
	api.Get("/issues/{id}/download", handler.Download)
}

// # Pages

/*
GET /api/v1/issues/{id}/pages.

Response:
  - 200: PageList
  - 404: ErrNotFound: No such issue
  - 422: ErrArchiveUnreadable
*/
func (handler *Handler) ListPages(writer http.ResponseWriter, request *http.Request) {
	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	pages, err := handler.service.ListPages(request.Context(), issueID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pages)
}

/*
GET /api/v1/issues/{id}/pages/{number}.

Response:
  - 200: image bytes
  - 304: If-None-Match matched
  - 404: ErrNotFound / ErrPageNotFound
  - 422: ErrArchiveUnreadable
*/
func (handler *Handler) GetPageByNumber(writer http.ResponseWriter, request *http.Request) {
	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	number, err := strconv.Atoi(requestutil.Param(request, "number"))
	if err != nil {
		respond.Error(writer, request, apperr.PageNotFound(requestutil.Param(request, "number")))
		return
	}

	handler.servePage(writer, request, issueID, archive.ByNumber(number))
}

/*
GET /api/v1/issues/{id}/page/{entryName}.

Description: The entry name is path-escaped by the page list and may contain
slashes. It is re-validated against the current index.
*/
func (handler *Handler) GetPageByName(writer http.ResponseWriter, request *http.Request) {
	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entryName, err := requestutil.Wildcard(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if entryName == "" {
		respond.Error(writer, request, apperr.PageNotFound(entryName))
		return
	}

	handler.servePage(writer, request, issueID, archive.ByName(entryName))
}

func (handler *Handler) servePage(writer http.ResponseWriter, request *http.Request, issueID int, selector archive.Selector) {
	page, err := handler.service.Page(request.Context(), issueID, selector)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	header := writer.Header()
	header.Set(constants.HeaderContentType, page.ContentType())
	header.Set(constants.HeaderCacheControl, constants.PageCacheControl)
	header.Set(constants.HeaderETag, page.ETag)

	http.ServeContent(writer, request, page.Entry.EntryName, page.ModTime, bytes.NewReader(page.Data))
}

// # Read Status

/*
GET /api/v1/issues/{id}/read.

Response:
  - 200: ReadStatus
  - 404: ErrNotFound
*/
func (handler *Handler) GetReadStatus(writer http.ResponseWriter, request *http.Request) {
	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.service.ReadStatus(request.Context(), issueID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, status)
}

// putReadStatusRequest defines the inbound JSON schema for a read flag update.
type putReadStatusRequest struct {
	IsRead *bool `json:"is_read"`
}

/*
PUT /api/v1/issues/{id}/read.

Request:
  - body: putReadStatusRequest

Response:
  - 200: ReadStatus
  - 400: ErrInvalidJSON/Validation
  - 404: ErrNotFound
*/
func (handler *Handler) PutReadStatus(writer http.ResponseWriter, request *http.Request) {
	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input putReadStatusRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.IsRead == nil {
		respond.Error(writer, request, validate.RequiredError(FieldIsRead, "This field is required"))
		return
	}

	status, err := handler.service.SetReadStatus(request.Context(), issueID, *input.IsRead)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, status)
}

// # Download

/*
GET /api/v1/issues/{id}/download.

Response:
  - 200: archive bytes as an attachment
  - 404: ErrNotFound
  - 422: ErrArchiveUnreadable: file missing on disk
*/
func (handler *Handler) Download(writer http.ResponseWriter, request *http.Request) {
	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	archivePath, fileName, err := handler.service.Download(request.Context(), issueID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	file, err := os.Open(archivePath)
	if err != nil {
		respond.Error(writer, request, apperr.ArchiveUnreadable(err))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		respond.Error(writer, request, apperr.ArchiveUnreadable(err))
		return
	}

	header := writer.Header()
	header.Set(constants.HeaderContentType, "application/octet-stream")
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))

	http.ServeContent(writer, request, fileName, info.ModTime(), file)
}
