package handler

import (
	"github.com/gin-gonic/gin"

	"academy/internal/auth"
	"academy/internal/user"
)

// Routes mounts every endpoint on the engine.
func (h *Handler) Routes(r *gin.Engine) {
	r.POST("/v1/auth/register", h.RegisterAccount)
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/contact", h.Contact)
	r.GET("/v1/courses", h.ListCourses)

	authed := r.Group("/v1", auth.Authenticate(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	{
		authed.GET("/notifications", h.MyNotifications)
		authed.PATCH("/notifications/:id/read", h.MarkNotificationRead)
		authed.POST("/notifications/read-all", h.MarkAllNotificationsRead)
		authed.GET("/invoices", h.MyInvoices)
		authed.GET("/batches", h.ListBatches)
	}

	admin := authed.Group("", auth.RequireRole(string(user.RoleAdmin)))
	{
		admin.POST("/admin/notifications", h.Broadcast)

		admin.GET("/admin/users", h.ListUsers)
		admin.GET("/admin/users/trash", h.ListTrashedUsers)
		admin.GET("/admin/users/:id", h.GetUser)
		admin.PUT("/admin/users/:id", h.UpdateUser)
		admin.DELETE("/admin/users/:id", h.SoftDeleteUser)
		admin.POST("/admin/users/:id/restore", h.RestoreUser)
		admin.DELETE("/admin/users/:id/purge", h.HardDeleteUser)

		admin.POST("/admin/batches", h.CreateBatch)
		admin.PUT("/admin/batches/:id", h.UpdateBatch)
		admin.DELETE("/admin/batches/:id", h.DeleteBatch)
		admin.POST("/admin/students/:id/batches", h.MoveStudent)
		admin.GET("/admin/students/:id/invoices", h.StudentInvoices)
		admin.GET("/admin/invoices/:id", h.InvoiceDetail)

		admin.POST("/admin/courses", h.CreateCourse)
		admin.PUT("/admin/courses/:id", h.UpdateCourse)
		admin.DELETE("/admin/courses/:id", h.SoftDeleteCourse)
		admin.POST("/admin/courses/:id/restore", h.RestoreCourse)
	}

	r.POST("/api/cms/media/upload",
		auth.Authenticate(h.cfg.JWTSigningKey, h.cfg.JWTIssuer),
		auth.RequireRole(string(user.RoleAdmin)),
		h.UploadMedia)
}
