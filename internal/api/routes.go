package api

import (
	"net/http"

	"fitbook/gym-app/internal/domain" // Needed for RoleMiddleware
	"fitbook/gym-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	classService service.ClassService,
	scheduleService service.ScheduleService,
) {

	authHandler := NewAuthHandler(authService)
	classHandler := NewClassHandler(classService)
	scheduleHandler := NewScheduleHandler(scheduleService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Class Template Routes ---
		// Everyone can browse the catalog; only admins manage it.
		classGroup := protected.Group("/classes")
		{
			classGroup.GET("", classHandler.ListClasses)
			classGroup.GET("/:id", classHandler.GetClass)
			classGroup.GET("/:id/cover", classHandler.GetCoverDownloadURL)

			classGroup.POST("", RoleMiddleware(domain.RoleAdmin), classHandler.CreateClass)
			classGroup.PUT("/:id", RoleMiddleware(domain.RoleAdmin), classHandler.UpdateClass)
			classGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), classHandler.DeleteClass)
			classGroup.POST("/:id/cover/upload-url", RoleMiddleware(domain.RoleAdmin), classHandler.GetCoverUploadURL)
			classGroup.POST("/:id/cover/confirm", RoleMiddleware(domain.RoleAdmin), classHandler.ConfirmCoverUpload)
		}

		// --- Schedule Routes ---
		// The check/preview endpoints back the admin scheduling workflow;
		// the commit endpoint is the only way schedules get created.
		scheduleGroup := protected.Group("/schedules")
		{
			scheduleGroup.GET("", scheduleHandler.ListSchedules)

			scheduleGroup.POST("/check-conflicts", RoleMiddleware(domain.RoleAdmin), scheduleHandler.CheckConflicts)
			scheduleGroup.POST("/preview-recurrence", RoleMiddleware(domain.RoleAdmin), scheduleHandler.PreviewRecurrence)
			scheduleGroup.POST("", RoleMiddleware(domain.RoleAdmin), scheduleHandler.CommitSchedule)
			scheduleGroup.PATCH("/:id/status", RoleMiddleware(domain.RoleAdmin), scheduleHandler.UpdateStatus)
			scheduleGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), scheduleHandler.DeleteSchedule)

			// Members book and release their own spots.
			scheduleGroup.POST("/:id/book", RoleMiddleware(domain.RoleMember), scheduleHandler.Book)
			scheduleGroup.POST("/:id/cancel-booking", RoleMiddleware(domain.RoleMember), scheduleHandler.CancelBooking)
		}
	}
}
