package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"skillcache-backend-go/internal/core"
	"skillcache-backend-go/internal/models"
)

// NoteHandler handles API endpoints related to notes.
type NoteHandler struct {
	noteService core.NoteService
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(ns core.NoteService) *NoteHandler {
	return &NoteHandler{noteService: ns}
}

// mapNoteErrorToStatus maps errors from core.NoteService to HTTP status codes.
func mapNoteErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrNoteNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrNoteNotFound.Error()}
	case errors.Is(err, core.ErrVaultNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrVaultNotFound.Error()}
	case errors.Is(err, core.ErrPermissionDenied):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrPermissionDenied.Error()}
	default:
		log.Printf("Internal Server Error: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateNote handles POST /api/notes
func (h *NoteHandler) CreateNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	createdNote, err := h.noteService.CreateNote(c.Request.Context(), userID, req)
	if err != nil {
		mapNoteErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdNote)
}

// GetNote handles GET /api/notes/:noteId
func (h *NoteHandler) GetNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")
	if noteID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Note ID is required"})
		return
	}

	note, err := h.noteService.GetNoteByID(c.Request.Context(), userID, noteID)
	if err != nil {
		mapNoteErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// ListNotes handles GET /api/notes. Without a vaultId query parameter it lists
// the caller's personal notes; with one it lists that vault's notes.
func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var notes []*models.Note
	var err error
	if vaultID := c.Query("vaultId"); vaultID != "" {
		notes, err = h.noteService.ListVaultNotes(c.Request.Context(), userID, vaultID, paginationFromQuery(c))
	} else {
		notes, err = h.noteService.ListPersonalNotes(c.Request.Context(), userID, paginationFromQuery(c))
	}
	if err != nil {
		mapNoteErrorToStatus(c, err)
		return
	}
	if notes == nil {
		notes = []*models.Note{}
	}
	c.JSON(http.StatusOK, notes)
}

// UpdateNote handles PUT /api/notes/:noteId
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")
	if noteID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Note ID is required"})
		return
	}

	var req models.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	updatedNote, err := h.noteService.UpdateNote(c.Request.Context(), userID, noteID, req)
	if err != nil {
		mapNoteErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, updatedNote)
}

// DeleteNote handles DELETE /api/notes/:noteId
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")
	if noteID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Note ID is required"})
		return
	}

	if err := h.noteService.DeleteNote(c.Request.Context(), userID, noteID); err != nil {
		mapNoteErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
