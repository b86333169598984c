package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"laundry/internal/database"
	"laundry/internal/metrics"
	"laundry/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bcrypt only looks at the first 72 bytes and refuses to hash longer input.
const maxPasswordBytes = 72

type RegisterInput struct {
	Username string `validate:"required"`
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type LoginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type AuthService struct {
	db   *sql.DB
	cost int
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{db: db, cost: bcrypt.DefaultCost}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (err error) {
	defer func() { metrics.ClientRegistrations.WithLabelValues(metrics.Result(err)).Inc() }()

	if err := validate.Struct(in); err != nil {
		return validationError("username, email, and password are required")
	}
	if len(in.Password) > maxPasswordBytes {
		return validationError("password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return storageError("hash password", err)
	}

	err = database.WithTx(ctx, s.db, true, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM clients WHERE username = $1 OR email = $2 LIMIT 1`,
			in.Username, in.Email,
		).Scan(&exists)
		if err == nil {
			return conflictError("username or email already exists")
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return storageError("check client", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO clients (username, email, password_hash) VALUES ($1, $2, $3)`,
			in.Username, in.Email, string(hash),
		)
		if err != nil {
			if hasPgCode(err, pgUniqueViolation) {
				return conflictError("username or email already exists")
			}
			return storageError("insert client", err)
		}
		return nil
	})
	if err != nil {
		return asStorage("register client", err)
	}

	slog.Info("client registered", "username", in.Username)
	return nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (client *model.Client, err error) {
	defer func() {
		metrics.LoginAttempts.WithLabelValues(metrics.PrincipalClient, metrics.Result(err)).Inc()
	}()

	if err := validate.Struct(in); err != nil {
		return nil, validationError("username and password are required")
	}

	var c model.Client
	err = database.WithTx(ctx, s.db, false, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			`SELECT id, username, email, password_hash FROM clients WHERE username = $1`,
			in.Username,
		).Scan(&c.ID, &c.Username, &c.Email, &c.PasswordHash)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unauthorizedError("invalid username or password")
		}
		return nil, storageError("get client", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(in.Password)); err != nil {
		return nil, unauthorizedError("invalid username or password")
	}

	return &c, nil
}

// asStorage leaves already classified errors alone and tags anything else
// as a storage failure.
func asStorage(op string, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) || errors.Is(err, ErrStorage) {
		return err
	}
	return storageError(op, err)
}
