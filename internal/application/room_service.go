package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

// RoomRepository is the write-side contract for the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, params CreateRoomParams) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	UpdateRoom(ctx context.Context, params UpdateRoomParams) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// RoomService manages the room catalog. Mutations require an administrator;
// reads are open to any authenticated principal.
type RoomService struct {
	repository  RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs the catalog service.
func NewRoomService(repository RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		repository:  repository,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom registers a new room in the catalog.
func (s *RoomService) CreateRoom(ctx context.Context, principal Principal, input RoomInput) (room Room, err error) {
	if s == nil || s.repository == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateRoom", "principal_id", principal.UserID, "room_name", input.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !principal.Role.CanManageCatalog() {
		return Room{}, ErrUnauthorized
	}
	if err := validateRoomInput(input); err != nil {
		return Room{}, err
	}

	now := s.now()
	room, err = s.repository.CreateRoom(ctx, CreateRoomParams{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Capacity:  input.Capacity,
		Equipment: input.Equipment,
		Floor:     input.Floor,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Room{}, mapCatalogRepoError(err, "name", "ya existe una sala con ese nombre")
	}
	return room, nil
}

// GetRoom returns one room by id.
func (s *RoomService) GetRoom(ctx context.Context, id string) (Room, error) {
	if s == nil || s.repository == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}
	room, err := s.repository.GetRoom(ctx, id)
	if err != nil {
		return Room{}, mapCatalogRepoError(err, "", "")
	}
	return room, nil
}

// ListRooms returns the catalog ordered by name.
func (s *RoomService) ListRooms(ctx context.Context) ([]Room, error) {
	if s == nil || s.repository == nil {
		return nil, fmt.Errorf("room repository not configured")
	}
	return s.repository.ListRooms(ctx)
}

// UpdateRoom replaces a room's attributes.
func (s *RoomService) UpdateRoom(ctx context.Context, principal Principal, id string, input RoomInput) (room Room, err error) {
	if s == nil || s.repository == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateRoom", "principal_id", principal.UserID, "room_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if !principal.Role.CanManageCatalog() {
		return Room{}, ErrUnauthorized
	}
	if err := validateRoomInput(input); err != nil {
		return Room{}, err
	}

	room, err = s.repository.UpdateRoom(ctx, UpdateRoomParams{
		ID:        id,
		Name:      strings.TrimSpace(input.Name),
		Capacity:  input.Capacity,
		Equipment: input.Equipment,
		Floor:     input.Floor,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return Room{}, mapCatalogRepoError(err, "name", "ya existe una sala con ese nombre")
	}
	return room, nil
}

// DeleteRoom removes a room. Rooms with reservation history are protected by
// a foreign key and cannot be removed.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil || s.repository == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom", "principal_id", principal.UserID, "room_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room deleted")
	}()

	if !principal.Role.CanManageCatalog() {
		return ErrUnauthorized
	}
	if err := s.repository.DeleteRoom(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrForeignKeyViolation) {
			vErr := &ValidationError{}
			vErr.add("id", "la sala tiene reservas asociadas y no se puede eliminar")
			return vErr
		}
		return mapCatalogRepoError(err, "", "")
	}
	return nil
}

func validateRoomInput(input RoomInput) error {
	validationErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		validationErr.add("name", "el nombre es obligatorio")
	}
	if input.Capacity <= 0 {
		validationErr.add("capacity", "la capacidad debe ser mayor que cero")
	}
	if validationErr.HasErrors() {
		return validationErr
	}
	return nil
}

func mapCatalogRepoError(err error, duplicateField, duplicateMessage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) || errors.Is(err, ErrAlreadyExists) {
		if duplicateField != "" {
			vErr := &ValidationError{}
			vErr.add(duplicateField, duplicateMessage)
			return vErr
		}
		return ErrAlreadyExists
	}
	return err
}
