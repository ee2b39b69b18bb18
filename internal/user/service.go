package user

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy/internal/auth"
	"academy/internal/notify"
)

// Authentication failures share one message so callers cannot probe for
// registered addresses.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Store is what the service needs from persistence.
type Store interface {
	ListActive(ctx context.Context, role Role) ([]User, error)
	ListTrashed(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

// Notifier triggers the best-effort welcome fan-out.
type Notifier interface {
	Send(ctx context.Context, recipients []notify.Recipient, subject, message string, opts notify.Options) (notify.Result, error)
}

// Service owns account lifecycle and login.
type Service struct {
	store     Store
	notifier  Notifier
	demoLogin bool
}

// NewService creates the user service. notifier may be nil.
func NewService(store Store, notifier Notifier, demoLogin bool) *Service {
	return &Service{store: store, notifier: notifier, demoLogin: demoLogin}
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
	Role     Role
}

// Register creates an account and sends a best-effort welcome notification.
// A notification or email failure never fails the registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return User{}, errors.New("name, email and password are required")
	}
	if in.Role == "" {
		in.Role = RoleStudent
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	u, err := s.store.Create(ctx, User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         in.Role,
		PasswordHash: hash,
		Enrollments:  []string{},
		Expertise:    []string{},
		TimeSlots:    []string{},
	})
	if err != nil {
		return User{}, err
	}

	if s.notifier != nil {
		_, err := s.notifier.Send(ctx,
			[]notify.Recipient{{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}},
			"Welcome to the academy",
			"Your account is ready. Visit your dashboard to pick a batch and time slot.",
			notify.Options{Email: true})
		if err != nil {
			log.Printf("welcome notification for %s: %v", u.ID, err)
		}
	}
	return u, nil
}

// Login verifies credentials against the active user set. With the demo
// shortcut enabled, any email containing "admin" yields a synthesized admin
// profile without touching the user table. Demo environments only.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.demoLogin && strings.Contains(email, "admin") {
		now := time.Now().UTC()
		return User{
			ID:          "demo-" + uuid.NewString(),
			Name:        "Administrator",
			Email:       email,
			Role:        RoleAdmin,
			Enrollments: []string{},
			Expertise:   []string{},
			TimeSlots:   []string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}, nil
	}

	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// UpdateProfile applies a full profile update.
func (s *Service) UpdateProfile(ctx context.Context, u User) error {
	return s.store.Update(ctx, u)
}

// ListActive returns users not in the trash, optionally filtered by role.
func (s *Service) ListActive(ctx context.Context, role Role) ([]User, error) {
	return s.store.ListActive(ctx, role)
}

// ListTrashed returns soft-deleted users awaiting restore or hard delete.
func (s *Service) ListTrashed(ctx context.Context) ([]User, error) {
	return s.store.ListTrashed(ctx)
}

// Get returns one user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.store.Get(ctx, id)
}

// SoftDelete moves a user to the trash; recoverable until hard-deleted.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	return s.store.SoftDelete(ctx, id)
}

// Restore brings a trashed user back and clears the deletion timestamp.
func (s *Service) Restore(ctx context.Context, id string) error {
	return s.store.Restore(ctx, id)
}

// HardDelete removes a user permanently.
func (s *Service) HardDelete(ctx context.Context, id string) error {
	return s.store.HardDelete(ctx, id)
}
