package businessprofile

import (
	"context"
	"errors"
	"fmt"

	"team-inbox-backend/internal/database"
	"team-inbox-backend/internal/model"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeInternal   ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Service is the gateway's only inward collaborator: it resolves a business
// profile id to the profile record, most importantly its phone number id.
type Service struct {
	repo Repository
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
	}
}

func NewWithRepository(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) Get(ctx context.Context, businessProfileID string) (model.BusinessProfileItem, error) {
	if businessProfileID == "" {
		return model.BusinessProfileItem{}, newError(ErrorCodeValidation, "business profile id is required", nil)
	}

	profile, err := s.repo.GetBusinessProfile(ctx, businessProfileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.BusinessProfileItem{}, newError(ErrorCodeNotFound, "business profile not found", err)
		}
		return model.BusinessProfileItem{}, newError(ErrorCodeInternal, "failed to load business profile", err)
	}
	return profile, nil
}

// PhoneNumberID satisfies the gateway's ProfileResolver interface.
func (s *Service) PhoneNumberID(ctx context.Context, businessProfileID string) (string, error) {
	profile, err := s.Get(ctx, businessProfileID)
	if err != nil {
		return "", err
	}
	if profile.PhoneNumberID == "" {
		return "", newError(ErrorCodeInternal, "business profile has no phone number id", fmt.Errorf("profile %s missing phoneNumberId", businessProfileID))
	}
	return profile.PhoneNumberID, nil
}
