package businessprofile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"team-inbox-backend/internal/model"
)

type memoryRepository struct {
	mu       sync.Mutex
	profiles map[string]model.BusinessProfileItem
	err      error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		profiles: make(map[string]model.BusinessProfileItem),
	}
}

func (m *memoryRepository) GetBusinessProfile(ctx context.Context, businessProfileID string) (model.BusinessProfileItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.BusinessProfileItem{}, m.err
	}
	profile, ok := m.profiles[businessProfileID]
	if !ok {
		return model.BusinessProfileItem{}, ErrNotFound
	}
	return profile, nil
}

func TestGetValidatesID(t *testing.T) {
	service := NewWithRepository(newMemoryRepository())

	_, err := service.Get(context.Background(), "")
	svcErr := requireServiceError(t, err)
	if svcErr.Code != ErrorCodeValidation {
		t.Fatalf("error code = %s, want %s", svcErr.Code, ErrorCodeValidation)
	}
}

func TestGetMapsNotFound(t *testing.T) {
	service := NewWithRepository(newMemoryRepository())

	_, err := service.Get(context.Background(), "bp-missing")
	svcErr := requireServiceError(t, err)
	if svcErr.Code != ErrorCodeNotFound {
		t.Fatalf("error code = %s, want %s", svcErr.Code, ErrorCodeNotFound)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("wrapped repository error should be preserved")
	}
}

func TestGetMapsRepositoryFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.err = errors.New("dynamodb timeout")
	service := NewWithRepository(repo)

	_, err := service.Get(context.Background(), "bp-1")
	svcErr := requireServiceError(t, err)
	if svcErr.Code != ErrorCodeInternal {
		t.Fatalf("error code = %s, want %s", svcErr.Code, ErrorCodeInternal)
	}
}

func TestPhoneNumberID(t *testing.T) {
	repo := newMemoryRepository()
	repo.profiles["bp-1"] = model.BusinessProfileItem{
		BusinessProfileID: "bp-1",
		Name:              "Acme Support",
		PhoneNumberID:     "phone-1",
	}
	repo.profiles["bp-empty"] = model.BusinessProfileItem{
		BusinessProfileID: "bp-empty",
		Name:              "Unprovisioned",
	}
	service := NewWithRepository(repo)

	phone, err := service.PhoneNumberID(context.Background(), "bp-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if phone != "phone-1" {
		t.Fatalf("phone number id = %q, want phone-1", phone)
	}

	_, err = service.PhoneNumberID(context.Background(), "bp-empty")
	svcErr := requireServiceError(t, err)
	if svcErr.Code != ErrorCodeInternal {
		t.Fatalf("error code = %s, want %s", svcErr.Code, ErrorCodeInternal)
	}
}

func requireServiceError(t *testing.T, err error) *Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	return svcErr
}
