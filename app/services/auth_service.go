// Package services holds the business rules. Services take repositories and
// infrastructure by constructor and report failures as *apperr.Error.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/auth"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

var errBadCredentials = apperr.New(apperr.Unauthorized, "invalid username/password")

// SignupInput is the signup request body.
type SignupInput struct {
	Username  string `json:"username"   validate:"required,alpha_dash,min=3,max=64"`
	Email     string `json:"email"      validate:"required,email,max=255"`
	Password  string `json:"password"   validate:"required,password"`
	FirstName string `json:"first_name" validate:"nullable,max=100"`
	LastName  string `json:"last_name"  validate:"nullable,max=100"`
	Address   string `json:"address"    validate:"nullable,max=255"`
	Phone     string `json:"phone"      validate:"nullable,max=50"`
	Age       int    `json:"age"        validate:"nullable,gte=0,lte=150"`
}

// Session is what signup and login return.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AuthService owns accounts and tokens.
type AuthService struct {
	users  *repositories.UserRepository
	issuer *auth.Issuer
}

func NewAuthService(users *repositories.UserRepository, issuer *auth.Issuer) *AuthService {
	return &AuthService{users: users, issuer: issuer}
}

// Signup creates a non-admin user together with an empty cart and logs them in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	for _, identity := range []string{in.Username, in.Email} {
		existing, err := s.users.Query(ctx, identity)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.New(apperr.AlreadyExists, "user already exists")
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hash password", err)
	}
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Address:   in.Address,
		Phone:     in.Phone,
		Age:       in.Age,
	}
	if _, err := s.users.CreateWithCart(ctx, user); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("auth: user signed up", "user_id", user.ID, "username", user.Username)
	return s.issue(user)
}

// Login checks the credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, identity, password string) (*Session, error) {
	user, err := s.users.Query(ctx, strings.TrimSpace(identity))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.Password, password) {
		return nil, errBadCredentials
	}
	return s.issue(user)
}

// VerifyPassword reports whether plaintext matches the stored hash.
func (s *AuthService) VerifyPassword(ctx context.Context, identity, plaintext string) (bool, error) {
	user, err := s.users.Query(ctx, identity)
	if err != nil || user == nil {
		return false, err
	}
	return auth.CheckPassword(user.Password, plaintext), nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, claims, err := s.issuer.Issue(auth.Subject{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Verify resolves a token to the live user behind it. Admin rights come
// from the stored user, not from the token.
func (s *AuthService) Verify(ctx context.Context, token string) (*auth.Principal, error) {
	claims, err := s.issuer.Parse(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.Unauthorized, "user no longer exists")
	}
	return &auth.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
		Claims:   claims,
	}, nil
}

// Logout revokes the token described by claims.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.issuer.Revoke(ctx, claims); err != nil {
		return apperr.Wrap(apperr.Internal, "revoke token", err)
	}
	return nil
}

// Me returns the user behind id.
func (s *AuthService) Me(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return user, nil
}

// Delete removes a user and everything they own.
func (s *AuthService) Delete(ctx context.Context, id uint) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("auth: user deleted", "user_id", id)
	return nil
}

// SetAdmin grants or revokes admin rights.
func (s *AuthService) SetAdmin(ctx context.Context, username string, admin bool) error {
	return s.users.SetAdmin(ctx, username, admin)
}
