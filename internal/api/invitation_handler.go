package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"skillcache-backend-go/internal/core"
	"skillcache-backend-go/internal/models"
)

// InvitationHandler handles the vault invitation lifecycle endpoints.
type InvitationHandler struct {
	invitationService core.InvitationService
}

// NewInvitationHandler creates a new InvitationHandler.
func NewInvitationHandler(is core.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: is}
}

// mapInvitationErrorToStatus maps errors from core.InvitationService to HTTP status codes.
func mapInvitationErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrInvitationNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrInvitationNotFound.Error()}
	case errors.Is(err, core.ErrVaultNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrVaultNotFound.Error()}
	case errors.Is(err, core.ErrPermissionDenied):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrPermissionDenied.Error()}
	case errors.Is(err, core.ErrDuplicateMember):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrDuplicateMember.Error()}
	case errors.Is(err, core.ErrDuplicateInvitation):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrDuplicateInvitation.Error()}
	case errors.Is(err, core.ErrInvitationNotPending):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrInvitationNotPending.Error()}
	case errors.Is(err, core.ErrInvitationExpired):
		statusCode = http.StatusGone
		errResponse = ErrorResponse{Error: core.ErrInvitationExpired.Error()}
	case errors.Is(err, core.ErrInvalidRole):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidRole.Error()}
	default:
		log.Printf("Internal Server Error: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// Invite handles POST /api/vaults/:vaultId/invite
func (h *InvitationHandler) Invite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	var req models.InviteToVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	invitation, err := h.invitationService.Invite(c.Request.Context(), userID, vaultID, req)
	if err != nil {
		mapInvitationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

// Accept handles POST /api/vaults/invitations/:invitationId/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	userEmail, ok := currentUserEmail(c)
	if !ok {
		return
	}
	invitationID := c.Param("invitationId")
	if invitationID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invitation ID is required"})
		return
	}

	invitation, err := h.invitationService.Accept(c.Request.Context(), userID, userEmail, invitationID)
	if err != nil {
		mapInvitationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

// Reject handles POST /api/vaults/invitations/:invitationId/reject
func (h *InvitationHandler) Reject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	userEmail, ok := currentUserEmail(c)
	if !ok {
		return
	}
	invitationID := c.Param("invitationId")
	if invitationID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invitation ID is required"})
		return
	}

	invitation, err := h.invitationService.Reject(c.Request.Context(), userID, userEmail, invitationID)
	if err != nil {
		mapInvitationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

// ListMine handles GET /api/vaults/invitations/me
func (h *InvitationHandler) ListMine(c *gin.Context) {
	userEmail, ok := currentUserEmail(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListForEmail(c.Request.Context(), userEmail)
	if err != nil {
		mapInvitationErrorToStatus(c, err)
		return
	}
	if invitations == nil {
		invitations = []*models.VaultInvitation{}
	}
	c.JSON(http.StatusOK, invitations)
}
