package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"skillcache-backend-go/internal/core"
)

// AuthHandler handles endpoints tied to the authentication flow.
type AuthHandler struct {
	userService core.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(us core.UserService) *AuthHandler {
	return &AuthHandler{userService: us}
}

// InitializeUserProfile handles POST /api/users/initialize. It is called by
// the client right after sign-in and creates the Firestore profile document
// for first-time users.
func (h *AuthHandler) InitializeUserProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	userEmail, ok := currentUserEmail(c)
	if !ok {
		return
	}
	displayName := c.GetString("userDisplayName")
	photoURL := c.GetString("userPhotoURL")

	user, created, err := h.userService.GetOrCreate(c.Request.Context(), userID, userEmail, displayName, photoURL)
	if err != nil {
		log.Printf("Internal Server Error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to initialize user profile"})
		return
	}

	status := http.StatusOK
	message := "User profile already exists"
	if created {
		status = http.StatusCreated
		message = "User profile created"
	}
	c.JSON(status, SuccessResponse{Message: message, Data: user})
}
