// Package services – UserService
//
// This file implements registration, password login (token issuance), user
// lookup and the subscriptions listing (followed authors with a preview of
// their recipes).
package services

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/repo"
)

// RegisterInput carries the fields of a sign-up request.
type RegisterInput struct {
	Email     string `json:"email"      validate:"required,email,max=254"`
	Username  string `json:"username"   validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name"  validate:"required,max=150"`
	Password  string `json:"password"   validate:"required,min=8,max=72"`
}

// Subscription is one followed author with a preview of their recipes.
type Subscription struct {
	Author       domain.User
	Recipes      []domain.Recipe
	RecipesCount int64
}

// UserService implements account and subscription use-cases.
type UserService struct {
	DB     *gorm.DB
	Tokens *auth.Issuer
	// PageSize is used when Subscriptions is called with a non-positive size.
	PageSize int
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, tokens *auth.Issuer) *UserService {
	return &UserService{DB: db, Tokens: tokens, PageSize: 6}
}

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

var userValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return v
}()

func validationFromStruct(err error) error {
	var fe validator.ValidationErrors
	if !errors.As(err, &fe) {
		return err
	}
	var c collector
	for _, e := range fe {
		c.add(ValidationError{Field: e.Field(), Reason: e.Tag()})
	}
	return c.err()
}

// Register creates an account. Email and username must be unused.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Register")
	defer span.End()

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := userValidator.Struct(in); err != nil {
		return nil, validationFromStruct(err)
	}

	if taken, err := repo.UserFieldTaken(ctx, s.DB, "email", in.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := repo.UserFieldTaken(ctx, s.DB, "username", in.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return u, nil
}

// Authenticate checks credentials and returns a signed token.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Authenticate")
	defer span.End()

	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.Tokens.Issue(u.ID)
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// IsFollowing reports whether viewerID follows authorID. An anonymous viewer
// follows nobody.
func (s *UserService) IsFollowing(ctx context.Context, viewerID, authorID string) (bool, error) {
	if viewerID == "" {
		return false, nil
	}
	return repo.Follows.Exists(ctx, s.DB, viewerID, authorID)
}

// Subscription returns authorID with up to recipesLimit of their recipes
// (all of them when recipesLimit <= 0).
func (s *UserService) Subscription(ctx context.Context, authorID string, recipesLimit int) (*Subscription, error) {
	u, err := s.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.preview(ctx, *u, recipesLimit)
}

func (s *UserService) preview(ctx context.Context, author domain.User, recipesLimit int) (*Subscription, error) {
	count, err := repo.CountRecipes(ctx, s.DB, repo.RecipeFilter{AuthorID: author.ID})
	if err != nil {
		return nil, err
	}
	recipes, err := repo.ListAuthorRecipes(ctx, s.DB, author.ID, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &Subscription{Author: author, Recipes: recipes, RecipesCount: count}, nil
}

// Subscriptions lists the authors userID follows, most recent first.
func (s *UserService) Subscriptions(ctx context.Context, userID string, page, pageSize, recipesLimit int) ([]Subscription, int64, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Subscriptions",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.PageSize
		if pageSize <= 0 {
			pageSize = 6
		}
	}

	total, err := repo.CountFollowedAuthors(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Subscription{}, 0, nil
	}
	authors, err := repo.ListFollowedAuthorsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Subscription, 0, len(authors))
	for _, a := range authors {
		sub, err := s.preview(ctx, a, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *sub)
	}
	return out, total, nil
}
