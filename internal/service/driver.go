package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleettrack/internal/auth"
	"fleettrack/internal/authz"
	"fleettrack/internal/domain"
	"fleettrack/internal/repository"
)

const minPasswordLength = 8

// DriverService manages driver accounts. Managers can onboard and look
// up drivers; destructive changes are reserved to owners.
type DriverService struct {
	userRepo    repository.UserRepository
	vehicleRepo repository.VehicleRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(userRepo repository.UserRepository, vehicleRepo repository.VehicleRepository) *DriverService {
	return &DriverService{userRepo: userRepo, vehicleRepo: vehicleRepo}
}

// CreateDriverRequest contains the parameters for onboarding a driver.
type CreateDriverRequest struct {
	Name     string
	Email    string
	Password string
	Actor    domain.Actor
}

// NormalizeEmail canonicalizes an email address for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

// Create onboards a new driver account. The email is unique across all
// accounts; the password is stored only as a bcrypt hash.
func (s *DriverService) Create(ctx context.Context, req CreateDriverRequest) (*domain.User, error) {
	if !authz.Allow(req.Actor, "", authz.ResourceDriver, authz.ActionCreate) {
		return nil, ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	email := NormalizeEmail(req.Email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	if len(req.Password) < minPasswordLength {
		return nil, ErrInvalidPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleDriver,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

// Get retrieves a driver account.
func (s *DriverService) Get(ctx context.Context, driverID string, actor domain.Actor) (*domain.User, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if !authz.Allow(actor, driverID, authz.ResourceDriver, authz.ActionRead) {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleDriver {
		return nil, repository.ErrNotFound
	}

	return user, nil
}

// List retrieves all driver accounts.
func (s *DriverService) List(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	if !authz.Allow(actor, "", authz.ResourceDriver, authz.ActionRead) {
		return nil, ErrForbidden
	}

	return s.userRepo.ListByRole(ctx, domain.RoleDriver)
}

// UpdateDriverRequest contains the mutable driver fields. Nil means
// "leave unchanged".
type UpdateDriverRequest struct {
	DriverID string
	Name     *string
	Email    *string
	Actor    domain.Actor
}

// Update mutates a driver's profile. Owner only.
func (s *DriverService) Update(ctx context.Context, req UpdateDriverRequest) (*domain.User, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	if !authz.Allow(req.Actor, "", authz.ResourceDriver, authz.ActionUpdate) {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleDriver {
		return nil, repository.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		user.Name = name
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if !validEmail(email) {
			return nil, ErrInvalidEmail
		}
		user.Email = email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

// Delete removes a driver account. Owner only. Any vehicle bound to the
// driver is unassigned first so no vehicle points at a dead account.
func (s *DriverService) Delete(ctx context.Context, driverID string, actor domain.Actor) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	if !authz.Allow(actor, "", authz.ResourceDriver, authz.ActionDelete) {
		return ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleDriver {
		return repository.ErrNotFound
	}

	if err := s.vehicleRepo.UnassignDriverAll(ctx, driverID); err != nil {
		return err
	}

	return s.userRepo.Delete(ctx, driverID)
}
