// Package auth проверяет учётные данные операторов и ведёт их сессии.
//
// ValidateCredentials всегда выполняет ровно одну проверку хеша: по
// сохранённому хешу, если оператор найден, и по заранее вычисленному
// подставному хешу, если нет. Поэтому по времени ответа нельзя понять,
// существует ли пользователь. Проверка хеша выполняется в пуле воркеров.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/newsletter/internal/lib/jwt"
	"github.com/magabrotheeeer/newsletter/internal/lib/metrics"
	"github.com/magabrotheeeer/newsletter/internal/lib/password"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/newsletter/internal/models"
)

// decoyHash argon2id-хеш с теми же параметрами, что и у настоящих паролей.
const decoyHash = "$argon2id$v=19$m=15000,t=2,p=1$" +
	"gZiV/M1gPc22ElAH/Jh1Hw$" +
	"CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"

const (
	minPasswordLen = 13
	maxPasswordLen = 128
)

// Repository хранилище учётных записей операторов.
type Repository interface {
	GetStoredCredentials(ctx context.Context, username string) (models.OperatorCredentials, bool, error)
	GetUsername(ctx context.Context, userID uuid.UUID) (string, error)
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
	CreateOperator(ctx context.Context, creds models.OperatorCredentials) (bool, error)
}

// Hasher вычисляет и проверяет хеши паролей.
type Hasher interface {
	GetHash(password string) (string, error)
	CompareHash(hash, password string) error
}

// Executor выполняет блокирующую работу вне горутины запроса.
type Executor interface {
	Do(ctx context.Context, fn func() error) error
}

// Revoker хранит отозванные токены.
type Revoker interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Service проверка учётных данных и сессии операторов.
type Service struct {
	repo     Repository
	hasher   Hasher
	pool     Executor
	jwtMaker jwt.Maker
	revoker  Revoker
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, hasher Hasher, pool Executor, jwtMaker jwt.Maker, revoker Revoker, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		pool:     pool,
		jwtMaker: jwtMaker,
		revoker:  revoker,
		log:      log,
	}
}

// ValidateCredentials возвращает id оператора, если имя и пароль верны.
//
// Неизвестное имя и неверный пароль дают одну и ту же ошибку вида
// KindInvalidCredentials. Ошибки хранилища и повреждённый хеш дают
// KindUnexpected.
func (s *Service) ValidateCredentials(ctx context.Context, username, pass string) (uuid.UUID, error) {
	const op = "auth.ValidateCredentials"

	creds, found, err := s.repo.GetStoredCredentials(ctx, username)
	if err != nil {
		metrics.CredentialChecks.WithLabelValues("error").Inc()
		return uuid.Nil, apperr.Unexpected(op, "failed to retrieve stored credentials", err)
	}

	expected := decoyHash
	if found {
		expected = creds.PasswordHash
	}

	err = s.verify(ctx, expected, pass)
	switch {
	case err == nil && found:
		metrics.CredentialChecks.WithLabelValues("ok").Inc()
		return creds.UserID, nil
	case err == nil, errors.Is(err, password.ErrMismatch):
		metrics.CredentialChecks.WithLabelValues("invalid").Inc()
		return uuid.Nil, apperr.InvalidCredentials(op, errors.New("unknown username or wrong password"))
	case errors.Is(err, password.ErrInvalidHash) && !found:
		metrics.CredentialChecks.WithLabelValues("invalid").Inc()
		return uuid.Nil, apperr.InvalidCredentials(op, err)
	default:
		metrics.CredentialChecks.WithLabelValues("error").Inc()
		return uuid.Nil, apperr.Unexpected(op, "failed to verify password hash", err)
	}
}

func (s *Service) verify(ctx context.Context, hash, pass string) error {
	return s.pool.Do(ctx, func() error {
		start := time.Now()
		defer func() { metrics.VerifyDuration.Observe(time.Since(start).Seconds()) }()
		return s.hasher.CompareHash(hash, pass)
	})
}

// Login проверяет учётные данные и выпускает JWT.
func (s *Service) Login(ctx context.Context, username, pass string) (string, error) {
	const op = "auth.Login"
	userID, err := s.ValidateCredentials(ctx, username, pass)
	if err != nil {
		return "", err
	}
	token, err := s.jwtMaker.GenerateToken(userID, username)
	if err != nil {
		return "", apperr.Unexpected(op, "failed to issue session token", err)
	}
	return token, nil
}

// Authenticate проверяет JWT и то, что он не был отозван.
func (s *Service) Authenticate(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	const op = "auth.Authenticate"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Op: op, Msg: "invalid or expired token", Err: err}
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Unexpected(op, "failed to check token revocation", err)
	}
	if revoked {
		return nil, apperr.Unauthorized(op, "token has been revoked")
	}
	return claims, nil
}

// Logout отзывает токен до конца срока его действия.
func (s *Service) Logout(ctx context.Context, claims *jwt.CustomClaims) error {
	const op = "auth.Logout"
	if claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Unexpected(op, "failed to revoke session token", err)
	}
	return nil
}

// Username возвращает имя оператора.
func (s *Service) Username(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "auth.Username"
	name, err := s.repo.GetUsername(ctx, userID)
	if err != nil {
		return "", apperr.Unexpected(op, "failed to load operator", err)
	}
	return name, nil
}

// ChangePassword меняет пароль оператора после проверки текущего.
// Новый пароль должен быть длиннее 12 и короче 129 символов.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	const op = "auth.ChangePassword"

	if n := utf8.RuneCountInString(newPassword); n < minPasswordLen || n > maxPasswordLen {
		return apperr.Validation(op, fmt.Errorf(
			"the new password must be longer than %d and shorter than %d characters",
			minPasswordLen-1, maxPasswordLen+1))
	}

	username, err := s.Username(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.ValidateCredentials(ctx, username, current); err != nil {
		if apperr.Is(err, apperr.KindInvalidCredentials) {
			return &apperr.Error{Kind: apperr.KindInvalidCredentials, Op: op, Msg: "the current password is incorrect", Err: err}
		}
		return err
	}

	hash, err := s.hash(ctx, newPassword)
	if err != nil {
		return apperr.Unexpected(op, "failed to hash password", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return apperr.Unexpected(op, "failed to change password", err)
	}
	s.log.Info("operator password changed", slog.String("user_id", userID.String()))
	return nil
}

// EnsureOperator создает оператора username, если его ещё нет.
func (s *Service) EnsureOperator(ctx context.Context, username, pass string) error {
	const op = "auth.EnsureOperator"
	if username == "" {
		return nil
	}
	if pass == "" {
		return fmt.Errorf("%s: password for operator %q is empty", op, username)
	}

	hash, err := s.hash(ctx, pass)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	created, err := s.repo.CreateOperator(ctx, models.OperatorCredentials{
		UserID:       uuid.New(),
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		s.log.Error("failed to create operator", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if created {
		s.log.Info("operator created", slog.String("username", username))
	}
	return nil
}

func (s *Service) hash(ctx context.Context, pass string) (string, error) {
	done := make(chan string, 1)
	err := s.pool.Do(ctx, func() error {
		h, err := s.hasher.GetHash(pass)
		if err != nil {
			return err
		}
		done <- h
		return nil
	})
	if err != nil {
		return "", err
	}
	return <-done, nil
}
