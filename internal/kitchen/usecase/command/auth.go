package command

import (
	"context"
	"errors"
	"strings"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/pkg/auth"
	"github.com/tair/central-kitchen/pkg/logger"
)

// RegisterUserCommand represents the command to register an account.
// StoreName is required for store staff.
type RegisterUserCommand struct {
	Email     string
	Password  string
	FullName  string
	Role      domain.Role
	StoreName string
}

// RegisterResult is the created account.
type RegisterResult struct {
	User       *domain.User       `json:"user"`
	StoreStaff *domain.StoreStaff `json:"store_staff,omitempty"`
}

// RegisterUserHandler handles user registration
type RegisterUserHandler struct {
	deps Deps
}

// NewRegisterUserHandler creates a new register user handler
func NewRegisterUserHandler(deps Deps) *RegisterUserHandler {
	return &RegisterUserHandler{deps: deps}
}

// Handle executes the register user command
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterResult, error) {
	ctx, span := startSpan(ctx, "RegisterUser")

	result, err := h.handle(ctx, cmd)
	return result, finish(ctx, span, "RegisterUser", err)
}

func (h *RegisterUserHandler) handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	switch {
	case email == "":
		return nil, domain.Validation(domain.CodeRequiredField, "email is required")
	case !strings.Contains(email, "@"):
		return nil, domain.Validation(domain.CodeInvalidFormat, "invalid email %q", cmd.Email)
	case len(cmd.Password) < 6:
		return nil, domain.Validation(domain.CodeInvalidValue, "password must be at least 6 characters")
	case !cmd.Role.Valid():
		return nil, domain.Validation(domain.CodeInvalidValue, "invalid role %d", cmd.Role)
	case cmd.Role == domain.RoleStoreStaff && strings.TrimSpace(cmd.StoreName) == "":
		return nil, domain.Validation(domain.CodeRequiredField, "store_name is required for store staff")
	}

	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return nil, domain.System(err, "failed to hash password")
	}

	now := h.deps.now()
	result := &RegisterResult{}
	err = h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Users.FindByEmail(ctx, email); err == nil {
			return domain.Conflict(domain.CodeAuthEmailExists, "email %s is already registered", email)
		} else if !errors.Is(err, domain.ErrRecordNotFound) {
			return err
		}

		user := &domain.User{
			ID:           domain.NewID(),
			Email:        email,
			PasswordHash: hash,
			FullName:     cmd.FullName,
			Role:         cmd.Role,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		result.User = user

		if cmd.Role != domain.RoleStoreStaff {
			return nil
		}
		staff := &domain.StoreStaff{
			ID:        domain.NewID(),
			UserID:    user.ID,
			StoreName: cmd.StoreName,
			CreatedAt: now,
		}
		result.StoreStaff = staff
		return repos.StoreStaff.Create(ctx, staff)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("user_id", result.User.ID).
		Str("role", cmd.Role.String()).
		Msg("User registered")

	return result, nil
}

// LoginUserCommand represents the command to login a user
type LoginUserCommand struct {
	Email    string
	Password string
}

// LoginResponse represents the response after successful login
type LoginResponse struct {
	Token      string             `json:"token"`
	User       *domain.User       `json:"user"`
	StoreStaff *domain.StoreStaff `json:"store_staff,omitempty"`
}

// LoginUserHandler handles user login command
type LoginUserHandler struct {
	deps Deps
}

// NewLoginUserHandler creates a new login user handler
func NewLoginUserHandler(deps Deps) *LoginUserHandler {
	return &LoginUserHandler{deps: deps}
}

// Handle executes the login user command
func (h *LoginUserHandler) Handle(ctx context.Context, cmd LoginUserCommand) (*LoginResponse, error) {
	ctx, span := startSpan(ctx, "LoginUser")

	resp, err := h.handle(ctx, cmd)
	return resp, finish(ctx, span, "LoginUser", err)
}

func (h *LoginUserHandler) handle(ctx context.Context, cmd LoginUserCommand) (*LoginResponse, error) {
	if cmd.Email == "" || cmd.Password == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "email and password are required")
	}

	repos := h.deps.Store.Repos()
	user, err := repos.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(cmd.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.Unauthenticated(domain.CodeAuthInvalidCredentials, "invalid credentials")
		}
		return nil, err
	}
	if !user.Active {
		return nil, domain.Forbidden(domain.CodeAuthFailed, "account is deactivated")
	}
	if !auth.CheckPassword(user.PasswordHash, cmd.Password) {
		return nil, domain.Unauthenticated(domain.CodeAuthInvalidCredentials, "invalid credentials")
	}

	token, err := auth.GenerateToken(h.deps.Tokens.Secret, h.deps.Tokens.TTL, user.ID, user.Email, int(user.Role))
	if err != nil {
		return nil, domain.System(err, "failed to generate token")
	}

	resp := &LoginResponse{Token: token, User: user}
	if user.Role == domain.RoleStoreStaff {
		staff, err := repos.StoreStaff.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			return nil, err
		}
		resp.StoreStaff = staff
	}

	logger.Info(ctx).
		Str("user_id", user.ID).
		Str("role", user.Role.String()).
		Msg("User logged in")

	return resp, nil
}

// VerifyTokenCommand represents the command to verify a session token
type VerifyTokenCommand struct {
	Token string
}

// VerifyTokenHandler resolves a token to its active account
type VerifyTokenHandler struct {
	deps Deps
}

// NewVerifyTokenHandler creates a new verify token handler
func NewVerifyTokenHandler(deps Deps) *VerifyTokenHandler {
	return &VerifyTokenHandler{deps: deps}
}

// Handle executes the verify token command
func (h *VerifyTokenHandler) Handle(ctx context.Context, cmd VerifyTokenCommand) (*domain.User, error) {
	ctx, span := startSpan(ctx, "VerifyToken")

	user, err := h.handle(ctx, cmd)
	return user, finish(ctx, span, "VerifyToken", err)
}

func (h *VerifyTokenHandler) handle(ctx context.Context, cmd VerifyTokenCommand) (*domain.User, error) {
	if cmd.Token == "" {
		return nil, domain.Unauthenticated(domain.CodeAuthzRequired, "token is required")
	}
	claims, err := auth.ValidateToken(h.deps.Tokens.Secret, cmd.Token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, domain.Unauthenticated(domain.CodeAuthTokenExpired, "token has expired")
		}
		return nil, domain.Unauthenticated(domain.CodeAuthTokenInvalid, "invalid token")
	}

	user, err := h.deps.Store.Repos().Users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.Unauthenticated(domain.CodeAuthTokenInvalid, "token subject no longer exists")
		}
		return nil, err
	}
	if !user.Active {
		return nil, domain.Forbidden(domain.CodeAuthFailed, "account is deactivated")
	}
	return user, nil
}
