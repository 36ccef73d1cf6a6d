package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"deadline_tracker_bot/internal/domain/attorney"
	idb "deadline_tracker_bot/internal/infra/database" // Sentinel errors like ErrAttorneyNotFound live here
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrAttorneyAlreadyExists = fmt.Errorf("attorney with this Telegram ID already exists")
var ErrAttorneyAlreadyInactive = fmt.Errorf("attorney is already inactive")
var ErrInvalidContact = fmt.Errorf("invalid contact value")

type AdminService struct {
	attorneyRepo    attorney.Repository
	adminTelegramID int64
}

func NewAdminService(ar attorney.Repository, adminID int64) *AdminService {
	return &AdminService{
		attorneyRepo:    ar,
		adminTelegramID: adminID,
	}
}

// IsAdmin reports whether the Telegram user is the configured admin.
func (s *AdminService) IsAdmin(telegramID int64) bool {
	return telegramID == s.adminTelegramID
}

// AddAttorney registers a new active attorney.
func (s *AdminService) AddAttorney(ctx context.Context, performingAdminID int64, telegramID int64, firstName string, lastNameValue string) (*attorney.Attorney, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}

	_, err := s.attorneyRepo.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return nil, ErrAttorneyAlreadyExists
	}
	if !errors.Is(err, idb.ErrAttorneyNotFound) {
		return nil, fmt.Errorf("failed to check existing attorney: %w", err)
	}

	var lastName sql.NullString
	if lastNameValue != "" {
		lastName = sql.NullString{String: lastNameValue, Valid: true}
	}

	newAttorney := &attorney.Attorney{
		TelegramID: telegramID,
		FirstName:  firstName,
		LastName:   lastName,
		IsActive:   true,
	}

	if err := s.attorneyRepo.Create(ctx, newAttorney); err != nil {
		if errors.Is(err, idb.ErrDuplicateTelegramID) {
			return nil, ErrAttorneyAlreadyExists
		}
		return nil, fmt.Errorf("failed to create attorney in repository: %w", err)
	}
	return newAttorney, nil
}

// RemoveAttorney deactivates an attorney; their deadlines stay but reminders stop.
func (s *AdminService) RemoveAttorney(ctx context.Context, performingAdminID int64, telegramID int64) (*attorney.Attorney, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}

	target, err := s.attorneyRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, idb.ErrAttorneyNotFound) {
			return nil, idb.ErrAttorneyNotFound
		}
		return nil, fmt.Errorf("failed to get attorney by Telegram ID for removal: %w", err)
	}

	if !target.IsActive {
		return target, ErrAttorneyAlreadyInactive
	}

	target.IsActive = false
	if err := s.attorneyRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update attorney to inactive in repository: %w", err)
	}
	return target, nil
}

// SetContact stores the email or phone number used for reminder delivery.
// kind is "email" or "phone".
func (s *AdminService) SetContact(ctx context.Context, performingAdminID int64, telegramID int64, kind, value string) (*attorney.Attorney, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}

	value = strings.TrimSpace(value)
	target, err := s.attorneyRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(kind) {
	case "email":
		if !strings.Contains(value, "@") {
			return nil, fmt.Errorf("%w: %q is not an email address", ErrInvalidContact, value)
		}
		target.Email = sql.NullString{String: value, Valid: true}
	case "phone":
		if strings.TrimLeft(value, "+0123456789 ") != "" || value == "" {
			return nil, fmt.Errorf("%w: %q is not a phone number", ErrInvalidContact, value)
		}
		target.Phone = sql.NullString{String: value, Valid: true}
	default:
		return nil, fmt.Errorf("%w: unknown contact kind %q", ErrInvalidContact, kind)
	}

	if err := s.attorneyRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update attorney contact: %w", err)
	}
	return target, nil
}

func (s *AdminService) ListActiveAttorneys(ctx context.Context, performingAdminID int64) ([]*attorney.Attorney, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.attorneyRepo.ListActive(ctx)
}

func (s *AdminService) ListAllAttorneys(ctx context.Context, performingAdminID int64) ([]*attorney.Attorney, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.attorneyRepo.ListAll(ctx)
}
