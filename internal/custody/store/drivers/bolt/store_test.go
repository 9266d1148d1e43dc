package bolt_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/aussiebroadwan/custodian/internal/custody/store/drivers/bolt"
	"github.com/aussiebroadwan/custodian/internal/custody/store/storetest"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, path string) *bolt.Store {
	t.Helper()

	st, err := bolt.NewStore(path, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newStore(t, filepath.Join(t.TempDir(), "custody.bolt"))
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custody.bolt")
	ctx := context.Background()

	first := newStore(t, path)
	require.NoError(t, first.Records().Put(ctx, storetest.Record("42")))
	require.NoError(t, first.Close())

	second := newStore(t, path)
	ok, err := second.Records().Has(ctx, "42")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPing_RequiresMigrations(t *testing.T) {
	st, err := bolt.NewStore(filepath.Join(t.TempDir(), "custody.bolt"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.Error(t, st.Ping(context.Background()))
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(context.Background()))
}

func TestPut_ClosedDatabase(t *testing.T) {
	st := newStore(t, filepath.Join(t.TempDir(), "custody.bolt"))
	require.NoError(t, st.Close())

	err := st.Records().Put(context.Background(), storetest.Record("42"))
	require.ErrorIs(t, err, store.ErrWriteFailed)
}
