package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	committed   bool
	rolledBack  bool
	rollbackErr error
}

func (f *fakeTx) Commit(context.Context) error { f.committed = true; return nil }
func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return f.rollbackErr
}

type fakeBeginner struct {
	tx   *fakeTx
	err  error
	opts *pgx.TxOptions
}

func (f fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if f.opts != nil {
		*f.opts = opts
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		tx := &fakeTx{}
		err := WithTransaction(ctx, fakeBeginner{tx: tx}, func(pgx.Tx) error { return nil })
		require.NoError(t, err)
		assert.True(t, tx.committed)
		assert.False(t, tx.rolledBack)
	})

	t.Run("rolls back and returns fn error", func(t *testing.T) {
		tx := &fakeTx{}
		boom := errors.New("insert failed")
		err := WithTransaction(ctx, fakeBeginner{tx: tx}, func(pgx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.True(t, tx.rolledBack)
		assert.False(t, tx.committed)
	})

	t.Run("wraps rollback failure", func(t *testing.T) {
		tx := &fakeTx{rollbackErr: errors.New("conn closed")}
		boom := errors.New("insert failed")
		err := WithTransaction(ctx, fakeBeginner{tx: tx}, func(pgx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "conn closed")
	})

	t.Run("begin failure", func(t *testing.T) {
		err := WithTransaction(ctx, fakeBeginner{err: errors.New("pool exhausted")}, func(pgx.Tx) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorContains(t, err, "begin tx")
	})
}

func TestWithTxOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("passes options to begin", func(t *testing.T) {
		var got pgx.TxOptions
		tx := &fakeTx{}
		opts := pgx.TxOptions{IsoLevel: pgx.Serializable}
		err := WithTxOptions(ctx, fakeBeginner{tx: tx, opts: &got}, opts, func(pgx.Tx) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, pgx.Serializable, got.IsoLevel)
		assert.True(t, tx.committed)
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		tx := &fakeTx{}
		assert.Panics(t, func() {
			_ = WithTxOptions(ctx, fakeBeginner{tx: tx}, pgx.TxOptions{}, func(pgx.Tx) error { panic("boom") })
		})
		assert.True(t, tx.rolledBack)
		assert.False(t, tx.committed)
	})
}
