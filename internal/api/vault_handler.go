package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"skillcache-backend-go/internal/core"
	"skillcache-backend-go/internal/models"
)

// VaultHandler handles API endpoints related to vaults and their members.
type VaultHandler struct {
	vaultService core.VaultService
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(vs core.VaultService) *VaultHandler {
	return &VaultHandler{vaultService: vs}
}

// mapVaultErrorToStatus maps errors from core.VaultService to HTTP status codes.
func mapVaultErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrVaultNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrVaultNotFound.Error()}
	case errors.Is(err, core.ErrMemberNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrMemberNotFound.Error()}
	case errors.Is(err, core.ErrPermissionDenied):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrPermissionDenied.Error()}
	case errors.Is(err, core.ErrOwnerProtected):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrOwnerProtected.Error()}
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

// CreateVault handles POST /api/vaults
func (h *VaultHandler) CreateVault(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	userEmail, ok := currentUserEmail(c)
	if !ok {
		return
	}

	var req models.CreateVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	createdVault, err := h.vaultService.CreateVault(c.Request.Context(), userID, userEmail, req)
	if err != nil {
		mapVaultErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdVault)
}

// GetVault handles GET /api/vaults/:vaultId
func (h *VaultHandler) GetVault(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	vault, err := h.vaultService.GetVaultByID(c.Request.Context(), userID, vaultID)
	if err != nil {
		mapVaultErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, vault)
}

// ListVaults handles GET /api/vaults
func (h *VaultHandler) ListVaults(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	vaults, err := h.vaultService.ListVaults(c.Request.Context(), userID, paginationFromQuery(c))
	if err != nil {
		mapVaultErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, vaults)
}

// UpdateVault handles PUT /api/vaults/:vaultId
func (h *VaultHandler) UpdateVault(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	var req models.UpdateVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	updatedVault, err := h.vaultService.UpdateVault(c.Request.Context(), userID, vaultID, req)
	if err != nil {
		mapVaultErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, updatedVault)
}

// DeleteVault handles DELETE /api/vaults/:vaultId
func (h *VaultHandler) DeleteVault(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	if err := h.vaultService.DeleteVault(c.Request.Context(), userID, vaultID); err != nil {
		mapVaultErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveMember handles DELETE /api/vaults/:vaultId/members/:memberId
func (h *VaultHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	vaultID := c.Param("vaultId")
	memberID := c.Param("memberId")
	if vaultID == "" || memberID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID and Member ID are required"})
		return
	}

	if err := h.vaultService.RemoveMember(c.Request.Context(), userID, vaultID, memberID); err != nil {
		mapVaultErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateMemberRole handles PUT /api/vaults/:vaultId/members/:memberId/role
func (h *VaultHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	vaultID := c.Param("vaultId")
	memberID := c.Param("memberId")
	if vaultID == "" || memberID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID and Member ID are required"})
		return
	}

	var req models.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.vaultService.UpdateMemberRole(c.Request.Context(), userID, vaultID, memberID, req.Role); err != nil {
		mapVaultErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Member role updated successfully"})
}
