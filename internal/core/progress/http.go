// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package progress keeps the resumable reading position of every issue.

# Routing

  - GET /issues/{id}/progress: stored position or the {1, 0, false} default.
  - PUT /issues/{id}/progress: insert or overwrite the position.
*/
package progress

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/daviddhdev/kometa/internal/platform/request"
	"github.com/daviddhdev/kometa/internal/platform/respond"
)

// Handler implements the HTTP layer for reading progress.
type Handler struct {
	service *Service
}

// NewHandler constructs a new progress [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches the progress endpoints to an authenticated router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Get("/issues/{id}/progress", handler.GetProgress)
	api.Put("/issues/{id}/progress", handler.PutProgress)
}

/*
GET /api/v1/issues/{id}/progress.

Response:
  - 200: Progress
  - 400: ErrValidation: malformed id
*/
func (handler *Handler) GetProgress(writer http.ResponseWriter, request *http.Request) {
	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	progress, err := handler.service.Get(request.Context(), issueID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, progress)
}

// putProgressRequest defines the inbound JSON schema for a position update.
type putProgressRequest struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

/*
PUT /api/v1/issues/{id}/progress.

Request:
  - body: putProgressRequest

Response:
  - 200: Progress: The stored row
  - 400: ErrInvalidJSON/Validation
  - 404: ErrNotFound: Issue does not exist
*/
func (handler *Handler) PutProgress(writer http.ResponseWriter, request *http.Request) {
	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input putProgressRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	progress, err := handler.service.Save(request.Context(), issueID, input.CurrentPage, input.TotalPages)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, progress)
}
