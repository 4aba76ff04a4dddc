package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/testfixtures"
)

func TestCreateUser(t *testing.T) {
	env := testfixtures.NewEnv()
	_, admin := seedAccount(t, env, testfixtures.AsAdmin())
	_, student := seedAccount(t, env)

	t.Run("administrator registers an account", func(t *testing.T) {
		user, err := env.Users.CreateUser(context.Background(), admin, application.UserInput{
			Email:       "Nueva.Alumna@UFRO.cl",
			DisplayName: "  Nueva Alumna  ",
			Role:        application.RoleStudent,
			Password:    "contraseña-larga",
		})
		if err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}
		if user.Email != "nueva.alumna@ufro.cl" {
			t.Fatalf("expected normalized email, got %q", user.Email)
		}
		if user.DisplayName != "Nueva Alumna" {
			t.Fatalf("expected trimmed name, got %q", user.DisplayName)
		}

		// The stored hash must verify against the supplied password.
		stored, err := env.Storage.GetUser(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("user not persisted: %v", err)
		}
		if err := application.VerifyPassword(stored.PasswordHash, "contraseña-larga"); err != nil {
			t.Fatalf("stored hash does not verify: %v", err)
		}
	})

	t.Run("students may not register accounts", func(t *testing.T) {
		_, err := env.Users.CreateUser(context.Background(), student, application.UserInput{
			Email:       "otra@ufro.cl",
			DisplayName: "Otra",
			Role:        application.RoleStudent,
			Password:    "contraseña-larga",
		})
		if !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("duplicate email is a field error", func(t *testing.T) {
		_, err := env.Users.CreateUser(context.Background(), admin, application.UserInput{
			Email:       "nueva.alumna@ufro.cl",
			DisplayName: "Duplicada",
			Role:        application.RoleStudent,
			Password:    "contraseña-larga",
		})
		fieldError(t, err, "email")
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := env.Users.CreateUser(context.Background(), admin, application.UserInput{
			Email:       "no-es-correo",
			DisplayName: " ",
			Role:        application.RoleStudent,
			Password:    "corta",
		})
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"email", "nombre", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected field error on %q", field)
			}
		}
	})
}

func TestGetUserAuthorization(t *testing.T) {
	env := testfixtures.NewEnv()
	user, owner := seedAccount(t, env)
	_, stranger := seedAccount(t, env)
	_, admin := seedAccount(t, env, testfixtures.AsAdmin())

	if _, err := env.Users.GetUser(context.Background(), owner, user.ID); err != nil {
		t.Fatalf("users should read their own account: %v", err)
	}
	if _, err := env.Users.GetUser(context.Background(), admin, user.ID); err != nil {
		t.Fatalf("administrators should read any account: %v", err)
	}
	if _, err := env.Users.GetUser(context.Background(), stranger, user.ID); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdateUserKeepsPasswordUnlessSupplied(t *testing.T) {
	env := testfixtures.NewEnv()
	_, admin := seedAccount(t, env, testfixtures.AsAdmin())
	user := seedCredentials(t, env, nil)

	updated, err := env.Users.UpdateUser(context.Background(), admin, user.ID, application.UserInput{
		Email:       user.Email,
		DisplayName: "Nombre Nuevo",
		Role:        application.RoleStudent,
	})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if updated.DisplayName != "Nombre Nuevo" {
		t.Fatalf("expected updated name, got %q", updated.DisplayName)
	}

	stored, err := env.Storage.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if stored.PasswordHash != user.PasswordHash {
		t.Fatal("password hash must not change when no password is supplied")
	}

	if _, err := env.Users.UpdateUser(context.Background(), admin, user.ID, application.UserInput{
		Email:       user.Email,
		DisplayName: "Nombre Nuevo",
		Role:        application.RoleStudent,
		Password:    "otra-contraseña",
	}); err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	stored, err = env.Storage.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if err := application.VerifyPassword(stored.PasswordHash, "otra-contraseña"); err != nil {
		t.Fatalf("new password does not verify: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	env := testfixtures.NewEnv()
	adminUser, admin := seedAccount(t, env, testfixtures.AsAdmin())
	user, _ := seedAccount(t, env)

	t.Run("cannot delete own account", func(t *testing.T) {
		err := env.Users.DeleteUser(context.Background(), admin, adminUser.ID)
		fieldError(t, err, "id")
	})

	t.Run("removes another account", func(t *testing.T) {
		if err := env.Users.DeleteUser(context.Background(), admin, user.ID); err != nil {
			t.Fatalf("DeleteUser returned error: %v", err)
		}
		if _, err := env.Users.GetUser(context.Background(), admin, user.ID); !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestListUsersIsAdminOnly(t *testing.T) {
	env := testfixtures.NewEnv()
	_, student := seedAccount(t, env)
	_, admin := seedAccount(t, env, testfixtures.AsAdmin())

	if _, err := env.Users.ListUsers(context.Background(), student); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	users, err := env.Users.ListUsers(context.Background(), admin)
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(users))
	}
}
