package users

import (
	"context"
	"errors"
	"testing"

	"bookline/backend/internal/store"
	"bookline/backend/internal/store/memory"
)

func TestRegister_Validation(t *testing.T) {
	svc := NewService(memory.NewUserStore())

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"missing email", RegisterInput{Name: "A", Password: "longenough"}},
		{"bad email", RegisterInput{Email: "nope", Name: "A", Password: "longenough"}},
		{"missing name", RegisterInput{Email: "a@b.com", Password: "longenough"}},
		{"short password", RegisterInput{Email: "a@b.com", Name: "A", Password: "short"}},
	}
	for _, tc := range cases {
		_, err := svc.Register(context.Background(), tc.in)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: err = %v, want ValidationError", tc.name, err)
		}
	}
}

func TestRegisterLogin_RoundTrip(t *testing.T) {
	svc := NewService(memory.NewUserStore())

	u, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Client@Example.Com ",
		Name:     "Client",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.Email != "client@example.com" {
		t.Fatalf("email = %q, want normalized", u.Email)
	}
	if u.PasswordHash == "correct horse" {
		t.Fatalf("password stored in the clear")
	}

	got, err := svc.Login(context.Background(), "client@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("login returned wrong user")
	}

	if _, err := svc.Login(context.Background(), "client@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "ghost@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewService(memory.NewUserStore())

	in := RegisterInput{Email: "dup@example.com", Name: "A", Password: "longenough"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("duplicate err = %v, want ErrDuplicateEmail", err)
	}
}
