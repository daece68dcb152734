package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/studentdesk/internal/app/controllers"
	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	adminController *controllers.AdminController,
	studentController *controllers.StudentController,
	healthController *controllers.HealthController,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/ping", healthController.Ping)

	api := router.Group("/api")
	api.GET("/health", healthController.Health)

	// --- Public Auth routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/register", authController.Register)
		auth.GET("/me", authMiddleware.Authenticate(), authController.Me)
	}

	requireAdmin := authMiddleware.RequireRoles(models.RoleAdmin)

	// --- Admin management, admins only ---
	admins := api.Group("/admins")
	admins.Use(authMiddleware.Authenticate(), requireAdmin)
	{
		admins.GET("", adminController.ListAdmins)
		admins.POST("", adminController.CreateAdmin)
		admins.GET("/:id", adminController.GetAdmin)
		admins.PUT("/:id", adminController.UpdateAdmin)
		admins.DELETE("/:id", adminController.DeleteAdmin)
	}

	// --- Student records ---
	students := api.Group("/students")
	students.Use(authMiddleware.Authenticate())
	{
		students.GET("/me", studentController.GetMe)
		students.GET("/:id", studentController.GetStudent)
		students.PUT("/:id", studentController.UpdateStudent)

		students.GET("", requireAdmin, studentController.ListStudents)
		students.POST("", requireAdmin, studentController.CreateStudent)
		students.DELETE("/:id", requireAdmin, studentController.DeleteStudent)
	}
}
