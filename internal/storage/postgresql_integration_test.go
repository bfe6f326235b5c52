package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/newsletter/internal/migrations"
	"github.com/magabrotheeeer/newsletter/internal/models"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	path, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, path))
	return s
}

func newPending(email string) models.Subscriber {
	return models.Subscriber{
		ID:           uuid.New(),
		Email:        email,
		Name:         "le guin",
		SubscribedAt: time.Now().UTC(),
		Status:       models.StatusPendingConfirmation,
	}
}

func TestIntegration_SubscribeConfirmFlow(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	sub := newPending("ursula_le_guin@gmail.com")

	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		id, err := tx.InsertSubscriber(ctx, sub)
		if err != nil {
			return err
		}
		return tx.StoreToken(ctx, id, "VALIDTOKEN12345ABCDE67890")
	})
	require.NoError(t, err)

	id, found, err := s.SubscriberIDByToken(ctx, "VALIDTOKEN12345ABCDE67890")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sub.ID, id)

	require.NoError(t, s.ConfirmSubscriber(ctx, id))
	require.NoError(t, s.ConfirmSubscriber(ctx, id))

	saved, err := s.SubscriberByEmail(ctx, sub.Email)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, saved.Status)

	emails, err := s.ConfirmedSubscriberEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{sub.Email}, emails)
}

func TestIntegration_FailedTxLeavesNoRows(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	sub := newPending("rollback@example.com")

	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.InsertSubscriber(ctx, sub); err != nil {
			return err
		}
		// subscriber_id нарушает внешний ключ
		return tx.StoreToken(ctx, uuid.New(), "VALIDTOKEN12345ABCDE67890")
	})
	require.Error(t, err)

	_, found, err := s.SubscriberIDByEmail(ctx, sub.Email)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIntegration_ConcurrentInsertSameEmail(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	const n = 8
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.InTx(ctx, func(ctx context.Context, tx Tx) error {
				id, err := tx.InsertSubscriber(ctx, newPending("race@example.com"))
				ids[i] = id
				return err
			})
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM subscriptions WHERE email = $1`, "race@example.com").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestIntegration_Operators(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	creds := models.OperatorCredentials{UserID: uuid.New(), Username: "admin", PasswordHash: "hash-1"}

	created, err := s.CreateOperator(ctx, creds)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateOperator(ctx, creds)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, s.UpdatePasswordHash(ctx, creds.UserID, "hash-2"))

	stored, found, err := s.GetStoredCredentials(ctx, "admin")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hash-2", stored.PasswordHash)

	name, err := s.GetUsername(ctx, creds.UserID)
	require.NoError(t, err)
	assert.Equal(t, "admin", name)

	_, err = s.GetUsername(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
