package user

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/pkg/model"
	"github.com/evently-app/evently/pkg/sanitize"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
)

func NewService(repository userRepository) *Service {
	return &Service{repository: repository}
}

type userRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

type Service struct {
	repository userRepository
}

// SignUp creates a user with the given credentials. The username is sanitized before use.
func (s Service) SignUp(ctx context.Context, username string, password string) (*model.User, error) {
	username = sanitize.Text(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, errdef.NewValidation("Username must be between %d and %d characters.", minUsernameLength, maxUsernameLength)
	}
	if password == "" || len(password) > maxPasswordLength {
		return nil, errdef.NewValidation("Password must be between 1 and %d bytes.", maxPasswordLength)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("password hashing failed: %w", err)
	}

	user := &model.User{
		Username: username,
		Password: hashedPassword,
	}
	err = s.repository.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// SignIn returns the user matching the given credentials. Unknown usernames and wrong passwords
// result in the same error.
func (s Service) SignIn(ctx context.Context, username string, password string) (*model.User, error) {
	const unauthorizedError = "Invalid username or password."

	user, err := s.repository.FindByUsername(ctx, sanitize.Text(username))
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, errdef.NewUnauthorized(unauthorizedError)
		}
		return nil, err
	}

	match, err := comparePasswords(user.Password, password)
	if err != nil {
		return nil, fmt.Errorf("password comparison failed: %w", err)
	}
	if !match {
		return nil, errdef.NewUnauthorized(unauthorizedError)
	}

	return user, nil
}

func (s Service) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repository.FindByUsername(ctx, username)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func comparePasswords(storedPassword string, suppliedPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedPassword), []byte(suppliedPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
