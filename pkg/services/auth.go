package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	tokenIssuer     = "flowcanvas"
)

// Claims are the JWT claims of an access token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig configures token issuance.
type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Auth registers and authenticates accounts and issues HS256 access tokens.
type Auth struct {
	users     persistence.UserRepository
	config    AuthConfig
	validator *validator.Validate
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewAuth(users persistence.UserRepository, config AuthConfig, logger *slog.Logger, tracer trace.Tracer) *Auth {
	if config.TokenTTL <= 0 {
		config.TokenTTL = DefaultTokenTTL
	}

	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}

	return &Auth{
		users:     users,
		config:    config,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With("module", "auth_service"),
		tracer:    tracer,
		now:       time.Now,
	}
}

// Register creates an account and returns a token for it.
func (a *Auth) Register(ctx context.Context, credentials models.Credentials) (*models.AuthResponse, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "auth.register",
		attribute.String(otelhelper.UserEmailKey, credentials.Email))
	defer span.End()

	if err := a.validator.Struct(credentials); err != nil {
		return nil, NewValidationError("Register", "invalid_credentials", credentialsMessage(err), ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credentials.Password), a.config.BcryptCost)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		User:         models.User{Email: strings.TrimSpace(credentials.Email), Role: models.RoleUser},
		PasswordHash: string(hash),
	}

	err = a.users.Create(ctx, account)
	if err != nil {
		if persistence.IsUserAlreadyExists(err) {
			return nil, &ServiceError{Op: "Register", Code: "email_taken", Message: "Email is already registered", Err: ErrEmailTaken}
		}

		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.InfoContext(ctx, "User registered", "user_id", account.ID)

	return a.respond(account.User)
}

// Login checks credentials and returns a fresh token.
func (a *Auth) Login(ctx context.Context, credentials models.Credentials) (*models.AuthResponse, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "auth.login",
		attribute.String(otelhelper.UserEmailKey, credentials.Email))
	defer span.End()

	if credentials.Email == "" || credentials.Password == "" {
		return nil, NewValidationError("Login", "missing_credentials", "Email and password are required", ErrInvalidRequest)
	}

	account, err := a.users.GetByEmail(ctx, strings.TrimSpace(credentials.Email))
	if err != nil {
		if persistence.IsUserNotFound(err) {
			return nil, &ServiceError{Op: "Login", Code: "invalid_credentials", Message: "Invalid email or password", Err: ErrInvalidCredentials}
		}

		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(credentials.Password))
	if err != nil {
		return nil, &ServiceError{Op: "Login", Code: "invalid_credentials", Message: "Invalid email or password", Err: ErrInvalidCredentials}
	}

	return a.respond(account.User)
}

// Verify parses an access token and returns the user it was issued to.
func (a *Auth) Verify(ctx context.Context, tokenString string) (*models.User, error) {
	_, span := otelhelper.StartSpan(ctx, a.tracer, "auth.verify")
	defer span.End()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(a.config.Secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, &ServiceError{Op: "Verify", Code: "invalid_token", Err: errors.Join(ErrInvalidToken, err)}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, &ServiceError{Op: "Verify", Code: "invalid_token", Err: ErrInvalidToken}
	}

	return &models.User{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// IssueToken signs an access token for user.
func (a *Auth) IssueToken(user models.User) (string, error) {
	now := a.now()

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}

func (a *Auth) respond(user models.User) (*models.AuthResponse, error) {
	token, err := a.IssueToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{AccessToken: token, User: user}, nil
}

func credentialsMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid credentials"
	}

	switch fe := verrs[0]; {
	case fe.Field() == "Email" && fe.Tag() == "email":
		return "Email is invalid"
	case fe.Field() == "Email":
		return "Email is required"
	case fe.Tag() == "min":
		return "Password must be at least " + fe.Param() + " characters"
	default:
		return "Password is required"
	}
}
