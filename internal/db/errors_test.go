package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name:  "no rows maps to not found",
			err:   pgx.ErrNoRows,
			check: IsNotFound,
		},
		{
			name:  "unique violation",
			err:   &pgconn.PgError{Code: "23505", ConstraintName: "videos_pkey"},
			check: IsDuplicateKey,
		},
		{
			name:  "foreign key violation",
			err:   &pgconn.PgError{Code: "23503", ConstraintName: "videos_user_id_fkey"},
			check: IsForeignKeyViolation,
		},
		{
			name:  "serialization failure",
			err:   &pgconn.PgError{Code: "40001"},
			check: IsSerialization,
		},
		{
			name:  "deadlock",
			err:   &pgconn.PgError{Code: "40P01"},
			check: IsSerialization,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err, "op")
			assert.True(t, tt.check(wrapped), "unexpected classification for %v", wrapped)
			assert.Contains(t, wrapped.Error(), "op: ")
		})
	}
}

func TestWrapError_Passthrough(t *testing.T) {
	assert.NoError(t, WrapError(nil, "op"))

	base := errors.New("connection reset")
	wrapped := WrapError(base, "get video")
	assert.ErrorIs(t, wrapped, base)
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, "get video: connection reset", wrapped.Error())

	other := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	wrapped = WrapError(other, "list")
	assert.Contains(t, wrapped.Error(), "42P01")
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(wrapped, &pgErr))
}
