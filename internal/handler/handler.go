package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"academy/internal/auth"
	"academy/internal/batch"
	"academy/internal/config"
	"academy/internal/course"
	"academy/internal/invoice"
	"academy/internal/mail"
	"academy/internal/media"
	"academy/internal/notify"
	"academy/internal/user"
)

// InvoiceReader is the read surface the invoice endpoints need;
// invoice.Repository satisfies it.
type InvoiceReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]invoice.Invoice, error)
	Get(ctx context.Context, id string) (invoice.Invoice, error)
}

// Handler carries the services behind the portal's HTTP surface.
type Handler struct {
	cfg        config.App
	users      *user.Service
	fanout     *notify.Service
	inbox      *notify.Repository
	batches    *batch.Repository
	reconciler *batch.Reconciler
	courses    *course.Repository
	invoices   InvoiceReader
	uploader   *media.Uploader // nil when storage not configured
	mailer     *mail.Chain
}

// New creates a handler.
func New(cfg config.App, users *user.Service, fanout *notify.Service, inbox *notify.Repository,
	batches *batch.Repository, reconciler *batch.Reconciler, courses *course.Repository,
	invoices InvoiceReader, uploader *media.Uploader, mailer *mail.Chain) *Handler {
	return &Handler{
		cfg:        cfg,
		users:      users,
		fanout:     fanout,
		inbox:      inbox,
		batches:    batches,
		reconciler: reconciler,
		courses:    courses,
		invoices:   invoices,
		uploader:   uploader,
		mailer:     mailer,
	}
}

// ---------- Auth ----------

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

// RegisterAccount creates a student or teacher account and triggers the
// best-effort welcome notification.
func (h *Handler) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := user.Role(req.Role)
	if role != user.RoleTeacher {
		// public registration never yields an admin
		role = user.RoleStudent
	}

	u, err := h.users.Register(c.Request.Context(), user.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	tokens, err := auth.Issue(u.ID, string(u.Role), h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// ---------- Contact ----------

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

// Contact accepts the public contact form. Nothing is written to any table;
// the message is forwarded to the academy inbox best-effort.
func (h *Handler) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if h.mailer != nil {
		msg := mail.Message{
			ToEmail: h.cfg.ContactInbox,
			ToName:  "Academy Office",
			Subject: "Contact form: " + req.Name,
			Body:    req.Message + "\n\nReply to: " + req.Name + " <" + req.Email + ">",
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.cfg.MailTimeout)
			defer cancel()
			if err := h.mailer.Send(ctx, msg); err != nil {
				log.Printf("contact form forward: %v", err)
			}
		}()
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---------- Notifications ----------

// MyNotifications lists the caller's notifications.
func (h *Handler) MyNotifications(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	list, err := h.inbox.ListByRecipient(c.Request.Context(), claims.Subject, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []notify.Notification{}
	}
	unread, err := h.inbox.UnreadCount(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread_count": unread})
}

// MarkNotificationRead flips one notification's read flag.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	if err := h.inbox.MarkRead(c.Request.Context(), c.Param("id"), claims.Subject); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkAllNotificationsRead flips every unread notification of the caller.
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	if err := h.inbox.MarkAllRead(c.Request.Context(), claims.Subject); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type broadcastRequest struct {
	RecipientIDs []string `json:"recipient_ids" binding:"required,min=1"`
	Subject      string   `json:"subject" binding:"required"`
	Message      string   `json:"message" binding:"required"`
	Link         string   `json:"link"`
	Email        bool     `json:"email"`
	WhatsApp     bool     `json:"whatsapp"`
}

// Broadcast fans a notification out to a set of users (admin only).
func (h *Handler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipients := make([]notify.Recipient, 0, len(req.RecipientIDs))
	for _, id := range req.RecipientIDs {
		u, err := h.users.Get(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown recipient " + id})
			return
		}
		recipients = append(recipients, notify.Recipient{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone})
	}

	res, err := h.fanout.Send(c.Request.Context(), recipients, req.Subject, req.Message,
		notify.Options{Email: req.Email, WhatsApp: req.WhatsApp, Link: req.Link})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"created":        res.Created,
		"emails_queued":  res.EmailsQueued,
		"whatsapp_links": res.WhatsAppLinks,
	})
}

// ---------- Users (admin) ----------

// ListUsers returns active users, optionally filtered by ?role=.
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.users.ListActive(c.Request.Context(), user.Role(c.Query("role")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []user.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// ListTrashedUsers returns soft-deleted users.
func (h *Handler) ListTrashedUsers(c *gin.Context) {
	list, err := h.users.ListTrashed(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []user.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// GetUser returns one user.
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateUserRequest struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Role        string   `json:"role" binding:"required"`
	Enrollments []string `json:"enrollments"`
	Expertise   []string `json:"expertise"`
	TimeSlots   []string `json:"time_slots"`
}

// UpdateUser replaces a user's profile.
func (h *Handler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	u.Name = req.Name
	u.Email = req.Email
	u.Phone = req.Phone
	u.Address = req.Address
	u.Role = user.Role(req.Role)
	u.Enrollments = req.Enrollments
	u.Expertise = req.Expertise
	u.TimeSlots = req.TimeSlots
	if err := h.users.UpdateProfile(c.Request.Context(), u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

// SoftDeleteUser moves a user to the trash.
func (h *Handler) SoftDeleteUser(c *gin.Context) {
	h.lifecycle(c, h.users.SoftDelete)
}

// RestoreUser brings a trashed user back.
func (h *Handler) RestoreUser(c *gin.Context) {
	h.lifecycle(c, h.users.Restore)
}

// HardDeleteUser removes a user permanently.
func (h *Handler) HardDeleteUser(c *gin.Context) {
	h.lifecycle(c, h.users.HardDelete)
}

func (h *Handler) lifecycle(c *gin.Context, op func(context.Context, string) error) {
	if err := op(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ---------- Batches ----------

// ListBatches returns batches, optionally filtered by ?course_id=.
func (h *Handler) ListBatches(c *gin.Context) {
	list, err := h.batches.List(c.Request.Context(), c.Query("course_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []batch.Batch{}
	}
	c.JSON(http.StatusOK, gin.H{"batches": list})
}

type batchRequest struct {
	CourseID  string                `json:"course_id" binding:"required"`
	TeacherID string                `json:"teacher_id"`
	Capacity  int                   `json:"capacity"`
	Mode      string                `json:"mode"`
	Schedule  []batch.ScheduleEntry `json:"schedule"`
}

// CreateBatch creates a batch.
func (h *Handler) CreateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.batches.Create(c.Request.Context(), batch.Batch{
		CourseID:  req.CourseID,
		TeacherID: req.TeacherID,
		Capacity:  req.Capacity,
		Mode:      batch.Mode(req.Mode),
		Schedule:  req.Schedule,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, b)
}

// UpdateBatch replaces a batch.
func (h *Handler) UpdateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b := batch.Batch{
		ID:        c.Param("id"),
		CourseID:  req.CourseID,
		TeacherID: req.TeacherID,
		Capacity:  req.Capacity,
		Mode:      batch.Mode(req.Mode),
		Schedule:  req.Schedule,
	}
	if err := h.batches.Update(c.Request.Context(), b); err != nil {
		if errors.Is(err, batch.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBatch removes a batch.
func (h *Handler) DeleteBatch(c *gin.Context) {
	if err := h.batches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, batch.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type moveRequest struct {
	Enrollments []string              `json:"enrollments"`
	Changes     map[string]moveChange `json:"changes" binding:"required"`
}

type moveChange struct {
	OldBatchID string   `json:"old_batch_id"`
	NewBatchID string   `json:"new_batch_id"`
	Timings    []string `json:"timings"`
}

// MoveStudent applies per-course batch moves for one student.
func (h *Handler) MoveStudent(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	changes := make(map[string]batch.Move, len(req.Changes))
	for courseID, ch := range req.Changes {
		changes[courseID] = batch.Move{
			OldBatchID: ch.OldBatchID,
			NewBatchID: ch.NewBatchID,
			Timings:    ch.Timings,
		}
	}
	if err := h.reconciler.Reconcile(c.Request.Context(), c.Param("id"), req.Enrollments, changes); err != nil {
		if errors.Is(err, batch.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ---------- Courses ----------

// ListCourses returns the active course catalogue.
func (h *Handler) ListCourses(c *gin.Context) {
	list, err := h.courses.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []course.Course{}
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

type courseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// CreateCourse adds a course.
func (h *Handler) CreateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	crs, err := h.courses.Create(c.Request.Context(), course.Course{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, crs)
}

// UpdateCourse replaces a course's content fields.
func (h *Handler) UpdateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	crs := course.Course{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := h.courses.Update(c.Request.Context(), crs); err != nil {
		if errors.Is(err, course.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, crs)
}

// SoftDeleteCourse moves a course to the trash.
func (h *Handler) SoftDeleteCourse(c *gin.Context) {
	if err := h.courses.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, course.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RestoreCourse brings a trashed course back.
func (h *Handler) RestoreCourse(c *gin.Context) {
	if err := h.courses.Restore(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, course.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ---------- Invoices ----------

// MyInvoices lists the caller's invoices.
func (h *Handler) MyInvoices(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	h.invoicesFor(c, claims.Subject)
}

// StudentInvoices lists a student's invoices (admin only).
func (h *Handler) StudentInvoices(c *gin.Context) {
	h.invoicesFor(c, c.Param("id"))
}

// InvoiceDetail returns one invoice by id (admin only).
func (h *Handler) InvoiceDetail(c *gin.Context) {
	inv, err := h.invoices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) invoicesFor(c *gin.Context, studentID string) {
	list, err := h.invoices.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []invoice.Invoice{}
	}
	c.JSON(http.StatusOK, gin.H{"invoices": list})
}

// ---------- Media ----------

// UploadMedia stores one multipart file and returns its public URL.
func (h *Handler) UploadMedia(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media storage not configured"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	file.Close()
	url, err := h.uploader.Upload(header)
	if err != nil {
		log.Printf("media upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
