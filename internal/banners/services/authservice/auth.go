package authservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	"github.com/Leopold1975/page_banners/internal/banners/repository/userrepo"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/internal/pkg/jwtauth"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo Repository
	cfg      config.Auth
}

var (
	ErrNotAllowed         = errors.New("only admins can create admin")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUser        = errors.New("invalid user")
)

type Repository interface {
	CreateUser(context.Context, models.User) error
	GetUser(context.Context, string) (models.User, error)
}

func New(userRepo Repository, cfg config.Auth) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (as *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (string, error) {
	if req.Username == "" || req.Password == "" {
		return "", fmt.Errorf("%w: username and password are required", ErrInvalidUser)
	}

	switch req.Role {
	case "":
		req.Role = models.RoleUser
	case models.RoleUser:
	case models.RoleAdmin:
		// only admins create admins
		isAdmin, err := as.Auth(req.Token)
		if err != nil {
			return "", fmt.Errorf("auth error: %w", err)
		}

		if !isAdmin {
			return "", ErrNotAllowed
		}
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidUser, req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("generate from password error: %w", err)
	}

	u := models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
	}

	if err := as.userRepo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			return "", fmt.Errorf("%w: %q is taken", ErrInvalidUser, u.Username)
		}

		return "", fmt.Errorf("create user error: %w", err)
	}

	token, err := jwtauth.GetToken(u, as.cfg.TTL, as.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("can't get token error: %w", err)
	}

	return token, nil
}

// Auth reports whether token belongs to an admin.
func (as *AuthService) Auth(token string) (bool, error) {
	role, err := jwtauth.ValidateTokenRole(token, as.cfg.Secret)
	if err != nil {
		return false, fmt.Errorf("validate token role error: %w", err)
	}

	return role == models.RoleAdmin, nil
}

func (as *AuthService) Login(ctx context.Context, req LoginRequest) (string, error) {
	u, err := as.userRepo.GetUser(ctx, req.Username)
	if errors.Is(err, userrepo.ErrNotFound) {
		return "", ErrInvalidCredentials
	} else if err != nil {
		return "", fmt.Errorf("get user error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := jwtauth.GetToken(u, as.cfg.TTL, as.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("can't get token error: %w", err)
	}

	return token, nil
}
