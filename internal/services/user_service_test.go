package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/foodgram-backend/internal/auth"
)

func newUserService(t *testing.T, w *world) *UserService {
	t.Helper()
	iss, err := auth.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return NewUserService(w.db, iss)
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:     "Carol@Example.com",
		Username:  "carol",
		FirstName: "Carol",
		LastName:  "Cook",
		Password:  "s3cret-pass",
	}
}

func TestRegister_AndAuthenticate(t *testing.T) {
	w := newWorld(t)
	svc := newUserService(t, w)
	ctx := context.Background()

	u, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == "" || u.Email != "carol@example.com" || u.PasswordHash == "s3cret-pass" {
		t.Fatalf("unexpected user: %+v", u)
	}

	token, err := svc.Authenticate(ctx, "CAROL@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	sub, err := svc.Tokens.Parse(token)
	if err != nil || sub != u.ID {
		t.Fatalf("token subject=%q err=%v", sub, err)
	}

	if _, err := svc.Authenticate(ctx, "carol@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}
}

func TestRegister_Conflicts(t *testing.T) {
	w := newWorld(t)
	svc := newUserService(t, w)
	ctx := context.Background()

	in := validRegistration()
	in.Email = "alice@example.com"
	if _, err := svc.Register(ctx, in); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	in = validRegistration()
	in.Username = "bob"
	if _, err := svc.Register(ctx, in); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	w := newWorld(t)
	svc := newUserService(t, w)

	in := RegisterInput{Email: "not-an-email", Username: "bad name!", Password: "short"}
	_, err := svc.Register(context.Background(), in)

	var ve ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	fields := ve.Fields()
	want := map[string]string{
		"email":      "email",
		"username":   "username",
		"first_name": "required",
		"last_name":  "required",
		"password":   "min",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Fatalf("field %s: got %q want %q (all: %+v)", k, fields[k], v, fields)
		}
	}
}

func TestSubscriptions(t *testing.T) {
	w := newWorld(t)
	svc := newUserService(t, w)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		w.mustCreate(t, w.alice.ID, w.input([]string{w.lunch.ID}, IngredientAmount{w.a.ID, 1}))
	}

	subs, total, err := svc.Subscriptions(ctx, w.bob.ID, 1, 0, 2)
	if err != nil || total != 0 || len(subs) != 0 {
		t.Fatalf("no follows yet: %+v total=%d err=%v", subs, total, err)
	}

	if err := NewFollows(w.db).Add(ctx, w.bob.ID, w.alice.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	following, err := svc.IsFollowing(ctx, w.bob.ID, w.alice.ID)
	if err != nil || !following {
		t.Fatalf("IsFollowing=%v err=%v", following, err)
	}
	if f, _ := svc.IsFollowing(ctx, "", w.alice.ID); f {
		t.Fatalf("anonymous viewer follows nobody")
	}

	subs, total, err = svc.Subscriptions(ctx, w.bob.ID, 1, 0, 2)
	if err != nil || total != 1 || len(subs) != 1 {
		t.Fatalf("Subscriptions: %+v total=%d err=%v", subs, total, err)
	}
	s := subs[0]
	if s.Author.ID != w.alice.ID || s.RecipesCount != 3 || len(s.Recipes) != 2 {
		t.Fatalf("preview: author=%s count=%d recipes=%d", s.Author.ID, s.RecipesCount, len(s.Recipes))
	}

	one, err := svc.Subscription(ctx, w.alice.ID, 0)
	if err != nil || len(one.Recipes) != 3 {
		t.Fatalf("unlimited preview: %+v err=%v", one, err)
	}
	if _, err := svc.Subscription(ctx, "ghost", 0); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
