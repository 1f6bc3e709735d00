package routes

import (
	"grant-portal-api/controllers"
	"grant-portal-api/middleware"
	"grant-portal-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)
			public.POST("/register", controllers.Register)
			public.GET("/settings", controllers.GetGrantSettings)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Grant Portal API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:notificationId/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Grant applications
			applications := protected.Group("/applications")
			{
				applications.GET("", controllers.GetApplications)
				applications.GET("/:id", controllers.GetApplication)
				applications.POST("", controllers.CreateApplication)
				applications.PUT("/:id", controllers.UpdateApplication)
				applications.DELETE("/:id", controllers.DeleteApplication)

				applications.GET("/:id/missing-documents", controllers.GetMissingDocuments)
				applications.GET("/:id/audit-trail", controllers.GetApplicationAuditTrail)

				// Documents on an application
				applications.POST("/:id/documents", controllers.UploadDocument)

				// Message thread
				applications.GET("/:id/messages", controllers.GetMessages)
				applications.POST("/:id/messages", controllers.CreateMessage)

				// Progress reporting on funded projects
				applications.GET("/:id/progress-reports", controllers.GetProgressReports)
				applications.POST("/:id/progress-reports", controllers.SubmitProgressReport)

				// Disbursements
				applications.GET("/:id/disbursements", controllers.GetDisbursements)
				applications.POST("/:id/disbursements",
					middleware.RequireRole(models.RoleAdmin), controllers.CreateDisbursement)

				// Review workflow (staff only)
				staff := middleware.RequireRole(models.RoleReviewer, models.RoleAdmin)
				applications.POST("/:id/advance-stage", staff, controllers.AdvanceApplicationStage)
				applications.PUT("/:id/status", staff, controllers.UpdateApplicationStatus)
				applications.POST("/:id/approve", staff, controllers.ApproveApplication)
				applications.POST("/:id/reject", staff, controllers.RejectApplication)
				applications.POST("/:id/hold", staff, controllers.HoldApplication)
			}

			// Documents
			documents := protected.Group("/documents")
			{
				documents.GET("/types", controllers.GetDocumentTypes)
				documents.GET("/:documentId/download", controllers.DownloadDocument)
				documents.DELETE("/:documentId", controllers.DeleteDocument)
				documents.PUT("/:documentId/verify",
					middleware.RequireRole(models.RoleReviewer, models.RoleAdmin),
					controllers.VerifyDocument)
			}

			// Messages
			protected.PUT("/messages/:messageId/read", controllers.MarkMessageRead)

			// Progress report review (staff only)
			protected.PUT("/progress-reports/:reportId/review",
				middleware.RequireRole(models.RoleReviewer, models.RoleAdmin),
				controllers.ReviewProgressReport)

			// Dashboard
			protected.GET("/dashboard/stats", controllers.GetDashboardStats)

			// Audit trail (admin only)
			protected.GET("/audit-logs",
				middleware.RequireRole(models.RoleAdmin), controllers.GetAuditLogs)
		}
	}
}
