package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/database"
	"github.com/iliyamo/cms-backend/internal/model"
	"github.com/iliyamo/cms-backend/internal/repository"
	"github.com/iliyamo/cms-backend/internal/utils"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// AuthService registers and authenticates users.
type AuthService struct {
	db         *sql.DB
	tokens     *auth.Tokens
	bcryptCost int
}

func NewAuthService(db *sql.DB, tokens *auth.Tokens, bcryptCost int) *AuthService {
	return &AuthService{db: db, tokens: tokens, bcryptCost: bcryptCost}
}

// Register creates an author account and signs a token for it. The insert
// and the token issuance share one transaction, so a missing signing
// secret leaves no user behind.
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(password) < minPasswordLen {
		return nil, apperr.New(apperr.InvalidInput,
			"username must be at least 3 characters and password at least 6 characters")
	}

	exists, err := repository.NewUserRepo(s.db).UsernameExists(ctx, username)
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	if exists {
		return nil, apperr.New(apperr.Conflict, "username already exists")
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}

	var res *AuthResult
	err = database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		users := repository.NewUserRepo(tx)
		id, err := users.Create(ctx, username, hash, model.RoleAuthor)
		if err != nil {
			return storeErr(err, "", "username already exists")
		}
		u, err := users.GetByID(ctx, id)
		if err != nil {
			return storeErr(err, "user not found", "")
		}
		token, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Username: u.Username, Role: u.Role})
		if err != nil {
			return err
		}
		res = &AuthResult{User: u, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Login checks the credentials. An unknown username and a wrong password
// produce the same error, and both paths run one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.New(apperr.InvalidInput, "username and password are required")
	}

	u, err := repository.NewUserRepo(s.db).GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, storeErr(err, "", "")
		}
		utils.BurnPasswordCheck(password)
		return nil, invalidCredentials()
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, invalidCredentials()
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Username: u.Username, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

// Me returns the stored profile of id.
func (s *AuthService) Me(ctx context.Context, id auth.Identity) (*model.User, error) {
	u, err := repository.NewUserRepo(s.db).GetByID(ctx, id.UserID)
	if err != nil {
		return nil, storeErr(err, "user not found", "")
	}
	return u, nil
}

func invalidCredentials() error {
	return apperr.New(apperr.InvalidCredentials, "invalid username or password")
}
