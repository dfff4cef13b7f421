package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/neurobridge-backend/internal/data/repos/gateway"
	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/apierr"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// AuthService implements signup/login and the bearer-token verification the
// auth middleware calls on every protected request.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// SetContextFromToken verifies tokenString and returns ctx with a
	// RequestData carrying the authenticated user id.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log       *logger.Logger
	userRepo  gateway.UserRepo
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(userRepo gateway.UserRepo, jwtSecret string, accessTTL time.Duration, baseLog *logger.Logger) AuthService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &authService{
		log:       baseLog.With("service", "AuthService"),
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) Signup(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apierr.InvalidInput(fmt.Errorf("email and password are required"))
	}
	if len(password) < 8 {
		return nil, "", apierr.InvalidInput(fmt.Errorf("password must be at least 8 characters"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	existing, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, "", apierr.Internal(err)
	}
	if existing != nil {
		return nil, "", apierr.InvalidInput(fmt.Errorf("an account with this email already exists"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apierr.Internal(err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := as.userRepo.Create(dbc, user); err != nil {
		return nil, "", apierr.Internal(err)
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, "", apierr.Internal(err)
	}
	return user, token, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	dbc := dbctx.Context{Ctx: ctx}
	user, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, "", apierr.Internal(err)
	}
	if user == nil {
		return nil, "", apierr.Unauthorized(fmt.Errorf("invalid email or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apierr.Unauthorized(fmt.Errorf("invalid email or password"))
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, "", apierr.Internal(err)
	}
	return user, token, nil
}

func (as *authService) generateAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(as.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecret)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return ctx, apierr.Unauthorized(fmt.Errorf("invalid or expired token"))
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, apierr.Unauthorized(errors.New("malformed token subject"))
	}

	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		rd = &ctxutil.RequestData{}
	}
	next := *rd
	next.UserID = userID
	return ctxutil.WithRequestData(ctx, &next), nil
}
