// Package accounts implements registration, login and profile lookup on top
// of the relational Credential Store.
package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paintledger/internal/apperr"
	"paintledger/internal/auth"
	"paintledger/internal/models"
)

// Hasher is satisfied by *auth.Hasher.
type Hasher interface {
	Hash(pw string) (string, error)
	Verify(pw, digest string) bool
}

// Issuer is satisfied by *auth.TokenService.
type Issuer interface {
	Issue(id auth.Identity) (string, error)
}

type RegisterInput struct {
	Username   string
	Password   string
	Email      string
	InviteCode string
	// Origin is the caller's network address, used only for the audit log.
	Origin string
}

// PublicProfile is an account without its password hash.
type PublicProfile struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Roles     []string   `json:"roles"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

type LoginResult struct {
	User  PublicProfile
	Token string
}

type Service struct {
	repo       Repository
	hasher     Hasher
	tokens     Issuer
	inviteCode string
	lg         *zap.SugaredLogger
	now        func() time.Time
}

func NewService(repo Repository, hasher Hasher, tokens Issuer, inviteCode string, lg *zap.SugaredLogger) *Service {
	return &Service{
		repo:       repo,
		hasher:     hasher,
		tokens:     tokens,
		inviteCode: inviteCode,
		lg:         lg,
		now:        time.Now,
	}
}

var errBadCredentials = apperr.Unauthenticated("invalid username or password")

// Register validates input, enforces username and email uniqueness with two
// separate lookups, then stores the account with a hashed password.
//
// The lookups and the insert are not atomic. A concurrent registration of
// the same name can pass both checks; the loser then fails on the unique
// index and gets a store error rather than a conflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	if in.Username == "" || in.Password == "" || in.Email == "" {
		return apperr.Validation("username, password and email are required")
	}
	if in.InviteCode != s.inviteCode {
		return apperr.Validation("invalid invite code")
	}

	taken, err := s.repo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("username already exists")
	}
	taken, err = s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("email already in use")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return apperr.Store(err)
	}
	u := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		RoleList:     models.JoinRoles([]string{models.DefaultRole}),
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return err
	}

	s.lg.Infow("account registered",
		"event_id", uuid.NewString(),
		"username", u.Username,
		"ip", in.Origin,
		"at", u.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return nil
}

// Login checks credentials and issues a session token. Unknown users,
// inactive accounts and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || !s.hasher.Verify(password, u.PasswordHash) {
		return nil, errBadCredentials
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now

	tok, err := s.tokens.Issue(auth.Identity{ID: u.ID, Username: u.Username, Roles: u.Roles()})
	if err != nil {
		return nil, apperr.Store(err)
	}
	return &LoginResult{User: profileOf(u), Token: tok}, nil
}

// Profile returns the public view of an account, or a not-found error when
// the account behind a still-valid token has been removed.
func (s *Service) Profile(ctx context.Context, id int64) (*PublicProfile, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := profileOf(u)
	return &p, nil
}

func profileOf(u *models.User) PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Roles:     u.Roles(),
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}
