// Package storetest is a conformance suite run against every store driver.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/stretchr/testify/require"
)

// Record returns a fixture record for userID.
func Record(userID string) domain.UserRecord {
	return domain.UserRecord{
		UserID:          userID,
		Address:         "0x" + fmt.Sprintf("%064x", len(userID)),
		EncryptedSecret: "$custody$v=1$argon2id$m=64,t=1,p=1$c2FsdA$cGF5bG9hZA",
		SchemaVersion:   domain.SchemaVersionCurrent,
		EnrolledAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// Run exercises the Records contract against stores built by open. Each
// subtest receives a fresh, migrated store.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("empty", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		ok, err := st.Records().Has(ctx, "42")
		require.NoError(t, err)
		require.False(t, ok)

		_, err = st.Records().Get(ctx, "42")
		require.ErrorIs(t, err, store.ErrNotFound)

		all, err := st.Records().List(ctx)
		require.NoError(t, err)
		require.Empty(t, all)

		require.NoError(t, st.Ping(ctx))
	})

	t.Run("put then get", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()
		rec := Record("42")

		require.NoError(t, st.Records().Put(ctx, rec))

		ok, err := st.Records().Has(ctx, "42")
		require.NoError(t, err)
		require.True(t, ok)

		got, err := st.Records().Get(ctx, "42")
		require.NoError(t, err)
		require.Equal(t, rec.UserID, got.UserID)
		require.Equal(t, rec.Address, got.Address)
		require.Equal(t, rec.EncryptedSecret, got.EncryptedSecret)
		require.Equal(t, rec.SchemaVersion, got.SchemaVersion)
		require.True(t, rec.EnrolledAt.Equal(got.EnrolledAt))
	})

	t.Run("insert only", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		require.NoError(t, st.Records().Put(ctx, Record("42")))

		other := Record("42")
		other.Address = "0x" + fmt.Sprintf("%064x", 7)
		err := st.Records().Put(ctx, other)
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		got, err := st.Records().Get(ctx, "42")
		require.NoError(t, err)
		require.Equal(t, Record("42").Address, got.Address, "existing record must not change")
	})

	t.Run("list is ordered", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		for _, id := range []string{"300", "1", "20"} {
			require.NoError(t, st.Records().Put(ctx, Record(id)))
		}

		all, err := st.Records().List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, "1", all[0].UserID)
		require.Equal(t, "20", all[1].UserID)
		require.Equal(t, "300", all[2].UserID)
	})

	t.Run("concurrent puts", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- st.Records().Put(ctx, Record(fmt.Sprintf("user-%02d", i)))
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		all, err := st.Records().List(ctx)
		require.NoError(t, err)
		require.Len(t, all, n, "no record may be lost")
	})

	t.Run("concurrent puts same id", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		const n = 10
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- st.Records().Put(ctx, Record("42"))
			}()
		}
		wg.Wait()
		close(errs)

		var ok, conflicts int
		for err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrAlreadyExists):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		require.Equal(t, 1, ok)
		require.Equal(t, n-1, conflicts)
	})
}
