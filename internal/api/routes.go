package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skillcache-backend-go/internal/config"
	"skillcache-backend-go/internal/core"
	"skillcache-backend-go/internal/db"
	"skillcache-backend-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and middleware.
// It's expected that global middleware (Logging, Recovery, CORS) are applied to the `router`
// instance *before* this function is called, typically in `main.go`.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	userService core.UserService,
	vaultService core.VaultService,
	invitationService core.InvitationService,
	noteService core.NoteService,
) {
	// Get Firebase Auth client. This must be available after db.InitFirestore().
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		// The application cannot secure routes without it.
		logger.Fatal("CRITICAL_SETUP_ERROR: Firebase Auth client is not initialized. AuthMiddleware cannot be created, and routes will not be set up.")
		panic("Firebase Auth client is nil during route setup. Ensure db.InitFirestore() was called and succeeded.")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)

	authHandler := NewAuthHandler(userService)
	userHandler := NewUserHandler(userService)
	vaultHandler := NewVaultHandler(vaultService)
	invitationHandler := NewInvitationHandler(invitationService)
	noteHandler := NewNoteHandler(noteService)

	api := router.Group("/api")
	{
		// --- User and Authentication Endpoints ---
		usersGroup := api.Group("/users")
		{
			// POST /api/users/initialize - called after client-side Firebase
			// login/signup to ensure the backend profile exists.
			usersGroup.POST("/initialize", authMW.VerifyToken(), authHandler.InitializeUserProfile)

			// GET /api/users/me
			usersGroup.GET("/me", authMW.VerifyToken(), userHandler.GetCurrentUserProfile)
		}

		// --- Vault Endpoints ---
		// All vault operations require authentication.
		vaultsGroup := api.Group("/vaults", authMW.VerifyToken())
		{
			vaultsGroup.POST("", vaultHandler.CreateVault)
			vaultsGroup.GET("", vaultHandler.ListVaults) // Lists vaults for the authenticated user
			vaultsGroup.GET("/:vaultId", vaultHandler.GetVault)
			vaultsGroup.PUT("/:vaultId", vaultHandler.UpdateVault)
			vaultsGroup.DELETE("/:vaultId", vaultHandler.DeleteVault)

			// Membership management (nested under a specific vault)
			membersGroup := vaultsGroup.Group("/:vaultId/members")
			{
				// DELETE /api/vaults/{vaultId}/members/{memberId}
				membersGroup.DELETE("/:memberId", vaultHandler.RemoveMember)
				// PUT /api/vaults/{vaultId}/members/{memberId}/role
				membersGroup.PUT("/:memberId/role", vaultHandler.UpdateMemberRole)
			}

			// Invitation lifecycle. The static "invitations" segment coexists
			// with the :vaultId parameter; Gin resolves static segments first.
			vaultsGroup.POST("/:vaultId/invite", invitationHandler.Invite)
			invitationsGroup := vaultsGroup.Group("/invitations")
			{
				// GET /api/vaults/invitations/me
				invitationsGroup.GET("/me", invitationHandler.ListMine)
				// POST /api/vaults/invitations/{invitationId}/accept
				invitationsGroup.POST("/:invitationId/accept", invitationHandler.Accept)
				// POST /api/vaults/invitations/{invitationId}/reject
				invitationsGroup.POST("/:invitationId/reject", invitationHandler.Reject)
			}
		}

		// --- Note Endpoints ---
		// Vault access for shared notes is checked within the NoteService methods.
		notesGroup := api.Group("/notes", authMW.VerifyToken())
		{
			notesGroup.POST("", noteHandler.CreateNote)
			notesGroup.GET("", noteHandler.ListNotes)
			notesGroup.GET("/:noteId", noteHandler.GetNote)
			notesGroup.PUT("/:noteId", noteHandler.UpdateNote)
			notesGroup.DELETE("/:noteId", noteHandler.DeleteNote)
		}
	}

	// --- General Health Check Endpoint ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "SkillCache backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api and /health.")
}
