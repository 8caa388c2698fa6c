package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// currentUserID extracts the authenticated user's ID from the Gin context.
// When absent the request is aborted with 401 and ok is false; the auth
// middleware is expected to have run on every route that calls this.
func currentUserID(c *gin.Context) (string, bool) {
	raw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return "", false
	}
	userID, isString := raw.(string)
	if !isString || userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid user ID in context"})
		return "", false
	}
	return userID, true
}

// currentUserEmail extracts the authenticated user's email from the Gin
// context. Invitation routes require it to identify the invitee.
func currentUserEmail(c *gin.Context) (string, bool) {
	raw, exists := c.Get("userEmail")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User email not found in authentication token"})
		return "", false
	}
	email, isString := raw.(string)
	if !isString || email == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid user email in context"})
		return "", false
	}
	return email, true
}

// paginationFromQuery collects the basic pagination query parameters.
func paginationFromQuery(c *gin.Context) map[string]string {
	params := make(map[string]string)
	if limit := c.Query("limit"); limit != "" {
		params["limit"] = limit
	}
	if startAfter := c.Query("startAfter"); startAfter != "" {
		params["startAfter"] = startAfter
	}
	return params
}
