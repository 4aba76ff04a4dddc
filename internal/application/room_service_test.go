package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/testfixtures"
)

func TestCreateRoom(t *testing.T) {
	env := testfixtures.NewEnv()
	_, admin := seedAccount(t, env, testfixtures.AsAdmin())
	_, student := seedAccount(t, env)

	t.Run("administrator creates a room", func(t *testing.T) {
		floor := "2"
		room, err := env.Rooms.CreateRoom(context.Background(), admin, application.RoomInput{
			Name:     "Sala Magna",
			Capacity: 12,
			Floor:    &floor,
		})
		if err != nil {
			t.Fatalf("CreateRoom returned error: %v", err)
		}
		if room.ID == "" || room.Name != "Sala Magna" {
			t.Fatalf("unexpected room %+v", room)
		}
		if room.Floor == nil || *room.Floor != "2" {
			t.Fatalf("expected floor 2, got %v", room.Floor)
		}
	})

	t.Run("students may not manage the catalog", func(t *testing.T) {
		_, err := env.Rooms.CreateRoom(context.Background(), student, application.RoomInput{Name: "Sala B", Capacity: 4})
		if !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("duplicate names are a field error", func(t *testing.T) {
		_, err := env.Rooms.CreateRoom(context.Background(), admin, application.RoomInput{Name: "Sala Magna", Capacity: 8})
		fieldError(t, err, "name")
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := env.Rooms.CreateRoom(context.Background(), admin, application.RoomInput{Name: "   ", Capacity: 0})
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"name", "capacity"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected field error on %q", field)
			}
		}
	})
}

func TestUpdateRoom(t *testing.T) {
	env := testfixtures.NewEnv()
	_, admin := seedAccount(t, env, testfixtures.AsAdmin())
	room := seedRoom(t, env)

	updated, err := env.Rooms.UpdateRoom(context.Background(), admin, room.ID, application.RoomInput{
		Name:     "Sala Renovada",
		Capacity: 20,
	})
	if err != nil {
		t.Fatalf("UpdateRoom returned error: %v", err)
	}
	if updated.Name != "Sala Renovada" || updated.Capacity != 20 {
		t.Fatalf("unexpected room %+v", updated)
	}

	if _, err := env.Rooms.UpdateRoom(context.Background(), admin, "missing", application.RoomInput{
		Name:     "Sala X",
		Capacity: 4,
	}); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRoom(t *testing.T) {
	env := testfixtures.NewEnv()
	user, admin := seedAccount(t, env, testfixtures.AsAdmin())
	empty := seedRoom(t, env)
	occupied := seedRoom(t, env)

	res := testfixtures.NewReservationFixture(occupied.ID, user.ID)
	if err := env.Storage.CreateReservation(context.Background(), res); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	if err := env.Rooms.DeleteRoom(context.Background(), admin, empty.ID); err != nil {
		t.Fatalf("DeleteRoom returned error: %v", err)
	}
	if _, err := env.Rooms.GetRoom(context.Background(), empty.ID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	err := env.Rooms.DeleteRoom(context.Background(), admin, occupied.ID)
	message := fieldError(t, err, "id")
	if message != "la sala tiene reservas asociadas y no se puede eliminar" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestListRoomsIsPublicToAuthenticatedUsers(t *testing.T) {
	env := testfixtures.NewEnv()
	seedRoom(t, env)
	seedRoom(t, env)

	rooms, err := env.Rooms.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms returned error: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
}
