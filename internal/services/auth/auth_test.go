package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	customjwt "github.com/magabrotheeeer/newsletter/internal/lib/jwt"
	"github.com/magabrotheeeer/newsletter/internal/lib/password"
	"github.com/magabrotheeeer/newsletter/internal/lib/workerpool"
	"github.com/magabrotheeeer/newsletter/internal/models"
	"github.com/magabrotheeeer/newsletter/internal/services/auth"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Мок для Repository
type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetStoredCredentials(ctx context.Context, username string) (models.OperatorCredentials, bool, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(models.OperatorCredentials), args.Bool(1), args.Error(2)
}

func (m *RepoMock) GetUsername(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	args := m.Called(ctx, userID, hash)
	return args.Error(0)
}

func (m *RepoMock) CreateOperator(ctx context.Context, creds models.OperatorCredentials) (bool, error) {
	args := m.Called(ctx, creds)
	return args.Bool(0), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userID uuid.UUID, username string) (string, error) {
	args := m.Called(userID, username)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

// Мок для Revoker
type RevokerMock struct {
	mock.Mock
}

func (m *RevokerMock) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	args := m.Called(ctx, jti, expiresAt)
	return args.Error(0)
}

func (m *RevokerMock) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

// countingHasher считает проверки и запоминает, по какому хешу они шли.
type countingHasher struct {
	password.Hasher
	compares atomic.Int32
	lastHash atomic.Value
}

func (h *countingHasher) CompareHash(hash, pw string) error {
	h.compares.Add(1)
	h.lastHash.Store(hash)
	return h.Hasher.CompareHash(hash, pw)
}

type failingPool struct{ err error }

func (p failingPool) Do(context.Context, func() error) error { return p.err }

func newService(t *testing.T, repo *RepoMock, hasher auth.Hasher, maker customjwt.Maker, revoker auth.Revoker) *auth.Service {
	t.Helper()
	pool := workerpool.New(2)
	t.Cleanup(pool.Close)
	return auth.New(repo, hasher, pool, maker, revoker, newNoopLogger())
}

func storedCreds(t *testing.T, pw string) models.OperatorCredentials {
	t.Helper()
	hash, err := password.GetHash(pw)
	require.NoError(t, err)
	return models.OperatorCredentials{UserID: uuid.New(), Username: "admin", PasswordHash: hash}
}

func TestService_ValidateCredentials(t *testing.T) {
	creds := storedCreds(t, "correct horse battery")

	tests := []struct {
		name        string
		username    string
		password    string
		setupMocks  func(r *RepoMock)
		wantID      uuid.UUID
		wantKind    apperr.Kind
		wantErr     bool
		wantDecoy   bool
		wantCompare int32
	}{
		{
			name:     "valid credentials",
			username: "admin",
			password: "correct horse battery",
			setupMocks: func(r *RepoMock) {
				r.On("GetStoredCredentials", mock.Anything, "admin").Return(creds, true, nil).Once()
			},
			wantID:      creds.UserID,
			wantCompare: 1,
		},
		{
			name:     "wrong password",
			username: "admin",
			password: "wrong password",
			setupMocks: func(r *RepoMock) {
				r.On("GetStoredCredentials", mock.Anything, "admin").Return(creds, true, nil).Once()
			},
			wantErr:     true,
			wantKind:    apperr.KindInvalidCredentials,
			wantCompare: 1,
		},
		{
			name:     "unknown user still verifies against decoy",
			username: "ghost",
			password: "whatever",
			setupMocks: func(r *RepoMock) {
				r.On("GetStoredCredentials", mock.Anything, "ghost").Return(models.OperatorCredentials{}, false, nil).Once()
			},
			wantErr:     true,
			wantKind:    apperr.KindInvalidCredentials,
			wantDecoy:   true,
			wantCompare: 1,
		},
		{
			name:     "malformed stored hash",
			username: "admin",
			password: "correct horse battery",
			setupMocks: func(r *RepoMock) {
				broken := creds
				broken.PasswordHash = "not-a-phc-string"
				r.On("GetStoredCredentials", mock.Anything, "admin").Return(broken, true, nil).Once()
			},
			wantErr:     true,
			wantKind:    apperr.KindUnexpected,
			wantCompare: 1,
		},
		{
			name:     "storage error",
			username: "admin",
			password: "x",
			setupMocks: func(r *RepoMock) {
				r.On("GetStoredCredentials", mock.Anything, "admin").
					Return(models.OperatorCredentials{}, false, errors.New("connection refused")).Once()
			},
			wantErr:     true,
			wantKind:    apperr.KindUnexpected,
			wantCompare: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			hasher := &countingHasher{}
			svc := newService(t, repo, hasher, new(JwtMakerMock), new(RevokerMock))

			id, err := svc.ValidateCredentials(context.Background(), tt.username, tt.password)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Equal(t, uuid.Nil, id)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			assert.Equal(t, tt.wantCompare, hasher.compares.Load())
			if tt.wantDecoy {
				assert.NotEqual(t, creds.PasswordHash, hasher.lastHash.Load())
				assert.Contains(t, hasher.lastHash.Load(), "$argon2id$")
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_ValidateCredentials_PoolFailure(t *testing.T) {
	creds := storedCreds(t, "correct horse battery")
	repo := new(RepoMock)
	repo.On("GetStoredCredentials", mock.Anything, "admin").Return(creds, true, nil).Once()

	svc := auth.New(repo, password.Hasher{}, failingPool{err: workerpool.ErrClosed},
		new(JwtMakerMock), new(RevokerMock), newNoopLogger())

	_, err := svc.ValidateCredentials(context.Background(), "admin", "correct horse battery")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnexpected, apperr.KindOf(err))
	assert.ErrorIs(t, err, workerpool.ErrClosed)
}

func TestService_Login(t *testing.T) {
	creds := storedCreds(t, "correct horse battery")
	repo := new(RepoMock)
	repo.On("GetStoredCredentials", mock.Anything, "admin").Return(creds, true, nil)
	maker := new(JwtMakerMock)
	maker.On("GenerateToken", creds.UserID, "admin").Return("signed.jwt.token", nil).Once()

	svc := newService(t, repo, password.Hasher{}, maker, new(RevokerMock))

	token, err := svc.Login(context.Background(), "admin", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", token)

	_, err = svc.Login(context.Background(), "admin", "nope")
	assert.True(t, apperr.Is(err, apperr.KindInvalidCredentials))
	maker.AssertExpectations(t)
}

func TestService_Authenticate(t *testing.T) {
	claims := &customjwt.CustomClaims{
		UserID:           uuid.NewString(),
		Username:         "admin",
		RegisteredClaims: gojwt.RegisteredClaims{ID: "jti-1"},
	}

	tests := []struct {
		name       string
		setupMocks func(m *JwtMakerMock, r *RevokerMock)
		wantKind   apperr.Kind
		wantErr    bool
	}{
		{
			name: "valid token",
			setupMocks: func(m *JwtMakerMock, r *RevokerMock) {
				m.On("ParseToken", "tok").Return(claims, nil)
				r.On("IsRevoked", mock.Anything, "jti-1").Return(false, nil)
			},
		},
		{
			name: "invalid signature",
			setupMocks: func(m *JwtMakerMock, _ *RevokerMock) {
				m.On("ParseToken", "tok").Return(nil, errors.New("signature is invalid"))
			},
			wantErr:  true,
			wantKind: apperr.KindUnauthorized,
		},
		{
			name: "revoked token",
			setupMocks: func(m *JwtMakerMock, r *RevokerMock) {
				m.On("ParseToken", "tok").Return(claims, nil)
				r.On("IsRevoked", mock.Anything, "jti-1").Return(true, nil)
			},
			wantErr:  true,
			wantKind: apperr.KindUnauthorized,
		},
		{
			name: "denylist unavailable",
			setupMocks: func(m *JwtMakerMock, r *RevokerMock) {
				m.On("ParseToken", "tok").Return(claims, nil)
				r.On("IsRevoked", mock.Anything, "jti-1").Return(false, errors.New("redis down"))
			},
			wantErr:  true,
			wantKind: apperr.KindUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maker := new(JwtMakerMock)
			revoker := new(RevokerMock)
			tt.setupMocks(maker, revoker)
			svc := newService(t, new(RepoMock), password.Hasher{}, maker, revoker)

			got, err := svc.Authenticate(context.Background(), "tok")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin", got.Username)
		})
	}
}

func TestService_Logout(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims := &customjwt.CustomClaims{
		RegisteredClaims: gojwt.RegisteredClaims{ID: "jti-1", ExpiresAt: gojwt.NewNumericDate(exp)},
	}
	revoker := new(RevokerMock)
	revoker.On("RevokeToken", mock.Anything, "jti-1", mock.MatchedBy(func(at time.Time) bool {
		return at.Equal(exp)
	})).Return(nil).Once()

	svc := newService(t, new(RepoMock), password.Hasher{}, new(JwtMakerMock), revoker)
	require.NoError(t, svc.Logout(context.Background(), claims))
	revoker.AssertExpectations(t)
}

func TestService_ChangePassword(t *testing.T) {
	creds := storedCreds(t, "correct horse battery")

	tests := []struct {
		name       string
		current    string
		newPass    string
		setupMocks func(r *RepoMock)
		wantKind   apperr.Kind
		wantErr    bool
	}{
		{
			name:    "success",
			current: "correct horse battery",
			newPass: "a much longer passphrase",
			setupMocks: func(r *RepoMock) {
				r.On("GetUsername", mock.Anything, creds.UserID).Return("admin", nil).Once()
				r.On("GetStoredCredentials", mock.Anything, "admin").Return(creds, true, nil).Once()
				r.On("UpdatePasswordHash", mock.Anything, creds.UserID, mock.MatchedBy(func(h string) bool {
					return password.CompareHash(h, "a much longer passphrase") == nil
				})).Return(nil).Once()
			},
		},
		{
			name:       "too short",
			current:    "correct horse battery",
			newPass:    "twelve chars",
			setupMocks: func(*RepoMock) {},
			wantErr:    true,
			wantKind:   apperr.KindValidation,
		},
		{
			name:    "wrong current password",
			current: "incorrect",
			newPass: "a much longer passphrase",
			setupMocks: func(r *RepoMock) {
				r.On("GetUsername", mock.Anything, creds.UserID).Return("admin", nil).Once()
				r.On("GetStoredCredentials", mock.Anything, "admin").Return(creds, true, nil).Once()
			},
			wantErr:  true,
			wantKind: apperr.KindInvalidCredentials,
		},
		{
			name:    "update fails",
			current: "correct horse battery",
			newPass: "a much longer passphrase",
			setupMocks: func(r *RepoMock) {
				r.On("GetUsername", mock.Anything, creds.UserID).Return("admin", nil).Once()
				r.On("GetStoredCredentials", mock.Anything, "admin").Return(creds, true, nil).Once()
				r.On("UpdatePasswordHash", mock.Anything, creds.UserID, mock.Anything).Return(errors.New("db")).Once()
			},
			wantErr:  true,
			wantKind: apperr.KindUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := newService(t, repo, password.Hasher{}, new(JwtMakerMock), new(RevokerMock))

			err := svc.ChangePassword(context.Background(), creds.UserID, tt.current, tt.newPass)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_EnsureOperator(t *testing.T) {
	repo := new(RepoMock)
	repo.On("CreateOperator", mock.Anything, mock.MatchedBy(func(c models.OperatorCredentials) bool {
		return c.Username == "admin" && c.UserID != uuid.Nil &&
			password.CompareHash(c.PasswordHash, "bootstrap password") == nil
	})).Return(true, nil).Once()

	svc := newService(t, repo, password.Hasher{}, new(JwtMakerMock), new(RevokerMock))

	require.NoError(t, svc.EnsureOperator(context.Background(), "admin", "bootstrap password"))
	require.NoError(t, svc.EnsureOperator(context.Background(), "", ""))
	require.Error(t, svc.EnsureOperator(context.Background(), "admin", ""))
	repo.AssertExpectations(t)
}
