package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/contactkeeper/contacts_api/internal/cache"
	"github.com/contactkeeper/contacts_api/internal/hash"
	"github.com/contactkeeper/contacts_api/internal/logging"
	"github.com/contactkeeper/contacts_api/internal/models"
	"github.com/contactkeeper/contacts_api/internal/repo"
	"github.com/contactkeeper/contacts_api/internal/service/token"
)

// IdentityCache is the read-through cache in front of the user store. All
// methods are best-effort: Get degrades to a miss, Put and Delete log and
// swallow their own failures.
type IdentityCache interface {
	Get(ctx context.Context, username string) cache.Lookup
	Put(ctx context.Context, snap *cache.Snapshot)
	Delete(ctx context.Context, username string)
}

type Service struct {
	Repo   *repo.GormRepo
	Tokens *token.Service
	Cache  IdentityCache
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func New(r *repo.GormRepo, tokens *token.Service, c IdentityCache) *Service {
	return &Service{Repo: r, Tokens: tokens, Cache: c}
}

// Register creates an unconfirmed user with the user role. Duplicate username
// or email maps to ErrConflict, including the lost race on the unique index.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if _, err := s.Repo.UserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if _, err := s.Repo.UserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues an access/refresh pair. Unknown
// username and wrong password are indistinguishable to the caller. The
// refresh token is persisted on the user row, which revokes any previous one.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	if !user.Confirmed {
		return nil, ErrEmailNotVerified
	}

	access, err := s.Tokens.IssueAccess(user.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefresh(user.Username)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	user.RefreshToken = refresh

	s.Cache.Put(ctx, cache.FromUser(user))
	l.Info("login succeeded", "username", user.Username)

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token itself is echoed back unchanged; only a new login rotates it. The
// lookup always goes to the durable store so a revoked token cannot hide
// behind a stale cache entry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.Tokens.Verify(refreshToken, token.PurposeRefresh)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.Repo.UserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, ErrUnauthorized
	}

	access, err := s.Tokens.IssueAccess(user.Username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// ResolveSession turns a bearer access token into the authenticated user:
// verify, then cache, then store. A cache hit never touches the store and a
// miss is not written back; the cache is only populated on login,
// confirmation and avatar update.
func (s *Service) ResolveSession(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.Tokens.Verify(accessToken, token.PurposeAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}
	username := claims.Subject

	if lk := s.Cache.Get(ctx, username); lk.State == cache.Hit {
		return lk.User.User(), nil
	}

	user, err := s.Repo.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) RequireRole(user *models.User, role string) (*models.User, error) {
	if user == nil || user.Role != role {
		return nil, ErrForbidden
	}
	return user, nil
}

func (s *Service) RequireAdmin(user *models.User) (*models.User, error) {
	return s.RequireRole(user, models.RoleAdmin)
}

func (s *Service) IssueVerificationToken(email string) (string, error) {
	return s.Tokens.IssueEmailVerify(email)
}

func (s *Service) RedeemVerificationToken(raw string) (string, error) {
	claims, err := s.Tokens.Verify(raw, token.PurposeEmailVerify)
	if err != nil {
		return "", fmt.Errorf("%w: invalid token for email verification", ErrUnprocessable)
	}
	return claims.Subject, nil
}

// ConfirmEmail redeems a verification token and marks the account confirmed.
// Returns true when the email was already verified. A freshly confirmed user
// is pushed into the cache.
func (s *Service) ConfirmEmail(ctx context.Context, raw string) (bool, error) {
	email, err := s.RedeemVerificationToken(raw)
	if err != nil {
		return false, err
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}

	if err := s.Repo.ConfirmEmail(ctx, email); err != nil {
		return false, err
	}
	user.Confirmed = true
	s.Cache.Put(ctx, cache.FromUser(user))
	return false, nil
}

func (s *Service) IssueResetToken(email string) (string, error) {
	return s.Tokens.IssuePasswordReset(email)
}

func (s *Service) RedeemResetToken(raw string) (string, error) {
	claims, err := s.Tokens.Verify(raw, token.PurposePasswordReset)
	if err != nil {
		return "", fmt.Errorf("%w: invalid token for password reset", ErrUnprocessable)
	}
	return claims.Subject, nil
}

// ResetPassword redeems a reset token and replaces the password hash. The
// stored refresh token is cleared in the same write and the cache entry is
// dropped, so every outstanding session has to log in again.
func (s *Service) ResetPassword(ctx context.Context, raw, newPassword string) error {
	email, err := s.RedeemResetToken(raw)
	if err != nil {
		return err
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user, err := s.Repo.UpdatePassword(ctx, email, pwHash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.Cache.Delete(ctx, user.Username)
	logging.FromContext(ctx).Info("password reset", "username", user.Username)
	return nil
}

// UpdateAvatar stores the new avatar URL and refreshes the cached snapshot.
func (s *Service) UpdateAvatar(ctx context.Context, email, url string) (*models.User, error) {
	user, err := s.Repo.UpdateAvatar(ctx, email, url)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Cache.Put(ctx, cache.FromUser(user))
	return user, nil
}

// UserByEmail exposes the store lookup for the request_email / request_reset
// endpoints, which must not reveal whether the account exists.
func (s *Service) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
