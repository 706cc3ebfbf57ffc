package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockedVideo(t *testing.T) *Video {
	t.Helper()
	v := NewVideo("vid-1", "owner-1", "Golaço no sub-17")
	v.Block("Conteúdo inadequado relatado por usuários", "admin-1", time.Now())
	return v
}

func TestNewVideo(t *testing.T) {
	v := NewVideo("vid-1", "owner-1", "Treino")

	assert.Equal(t, VisibilityPublic, v.VisibilityStatus)
	assert.Nil(t, v.BlockReason)
	assert.Nil(t, v.AppealStatus)
	assert.False(t, v.IsBlocked())
	assert.False(t, v.HasPendingAppeal())
}

func TestVideo_Block(t *testing.T) {
	t.Run("blocks a public video", func(t *testing.T) {
		v := blockedVideo(t)

		assert.Equal(t, VisibilityBlocked, v.VisibilityStatus)
		require.NotNil(t, v.BlockReason)
		assert.Equal(t, "Conteúdo inadequado relatado por usuários", *v.BlockReason)
		require.NotNil(t, v.BlockedByAdminID)
		assert.Equal(t, "admin-1", *v.BlockedByAdminID)
		assert.NotNil(t, v.BlockedAt)
		assert.Nil(t, v.AppealStatus)
	})

	t.Run("reblock resets appeal history", func(t *testing.T) {
		v := blockedVideo(t)
		require.NoError(t, v.FileAppeal("Este vídeo segue as diretrizes da plataforma.", time.Now()))
		require.NoError(t, v.ResolveAppeal(DecisionReject, "O conteúdo ainda viola as diretrizes.", "admin-2", time.Now()))

		v.Block("Novo motivo de bloqueio", "admin-3", time.Now())

		assert.Equal(t, "Novo motivo de bloqueio", *v.BlockReason)
		assert.Equal(t, "admin-3", *v.BlockedByAdminID)
		assert.Nil(t, v.AppealStatus)
		assert.Nil(t, v.AppealMessage)
		assert.Nil(t, v.AppealAt)
		assert.Nil(t, v.AppealResponse)
		assert.Nil(t, v.AppealResolvedAt)
	})
}

func TestVideo_Unblock(t *testing.T) {
	v := blockedVideo(t)
	require.NoError(t, v.FileAppeal("Por favor revisem este bloqueio indevido.", time.Now()))

	v.Unblock(time.Now())

	assert.Equal(t, VisibilityPublic, v.VisibilityStatus)
	assert.Nil(t, v.BlockReason)
	assert.Nil(t, v.BlockedAt)
	assert.Nil(t, v.BlockedByAdminID)
	assert.Nil(t, v.AppealStatus)
	assert.Nil(t, v.AppealMessage)
}

func TestVideo_FileAppeal(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) *Video
		wantErr error
	}{
		{
			name: "public video cannot be appealed",
			setup: func(t *testing.T) *Video {
				return NewVideo("vid-1", "owner-1", "Treino")
			},
			wantErr: ErrNotBlocked,
		},
		{
			name: "public video with approved appeal cannot be appealed",
			setup: func(t *testing.T) *Video {
				v := blockedVideo(t)
				require.NoError(t, v.FileAppeal("mensagem de contestação longa", time.Now()))
				require.NoError(t, v.ResolveAppeal(DecisionApprove, "Após revisão, liberado.", "admin-1", time.Now()))
				return v
			},
			wantErr: ErrNotBlocked,
		},
		{
			name: "pending appeal blocks a second one",
			setup: func(t *testing.T) *Video {
				v := blockedVideo(t)
				require.NoError(t, v.FileAppeal("mensagem de contestação longa", time.Now()))
				return v
			},
			wantErr: ErrAppealPending,
		},
		{
			name: "blocked without appeal",
			setup: func(t *testing.T) *Video {
				return blockedVideo(t)
			},
		},
		{
			name: "blocked after rejected appeal",
			setup: func(t *testing.T) *Video {
				v := blockedVideo(t)
				require.NoError(t, v.FileAppeal("mensagem de contestação longa", time.Now()))
				require.NoError(t, v.ResolveAppeal(DecisionReject, "O conteúdo ainda viola.", "admin-1", time.Now()))
				return v
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.setup(t)
			before := v.Clone()

			err := v.FileAppeal("Revisei o conteúdo e removi o trecho questionado.", time.Now())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, v, "failed appeal must not change state")
				return
			}
			require.NoError(t, err)
			assert.True(t, v.HasPendingAppeal())
			assert.Equal(t, "Revisei o conteúdo e removi o trecho questionado.", *v.AppealMessage)
			assert.NotNil(t, v.AppealAt)
		})
	}
}

func TestVideo_ResolveAppeal(t *testing.T) {
	t.Run("approve publishes and clears block", func(t *testing.T) {
		v := blockedVideo(t)
		require.NoError(t, v.FileAppeal("mensagem de contestação longa", time.Now()))

		err := v.ResolveAppeal(DecisionApprove, "Após revisão, o conteúdo foi liberado.", "admin-2", time.Now())

		require.NoError(t, err)
		assert.Equal(t, VisibilityPublic, v.VisibilityStatus)
		assert.Equal(t, AppealApproved, *v.AppealStatus)
		assert.Equal(t, "Após revisão, o conteúdo foi liberado.", *v.AppealResponse)
		assert.NotNil(t, v.AppealResolvedAt)
		assert.Nil(t, v.BlockReason)
		assert.Nil(t, v.BlockedAt)
		assert.Nil(t, v.BlockedByAdminID)
	})

	t.Run("reject keeps reason and records admin", func(t *testing.T) {
		v := blockedVideo(t)
		require.NoError(t, v.FileAppeal("mensagem de contestação longa", time.Now()))
		reason := *v.BlockReason

		err := v.ResolveAppeal(DecisionReject, "O conteúdo ainda viola as diretrizes.", "admin-2", time.Now())

		require.NoError(t, err)
		assert.Equal(t, VisibilityBlocked, v.VisibilityStatus)
		assert.Equal(t, AppealRejected, *v.AppealStatus)
		assert.Equal(t, reason, *v.BlockReason)
		assert.Equal(t, "admin-2", *v.BlockedByAdminID)
	})

	t.Run("non-pending appeal is rejected for any decision", func(t *testing.T) {
		for _, decision := range []Decision{DecisionApprove, DecisionReject, Decision("maybe")} {
			v := blockedVideo(t)
			assert.ErrorIs(t, v.ResolveAppeal(decision, "resposta qualquer", "admin-1", time.Now()), ErrNoPendingAppeal)

			p := NewVideo("vid-2", "owner-1", "Treino")
			assert.ErrorIs(t, p.ResolveAppeal(decision, "resposta qualquer", "admin-1", time.Now()), ErrNoPendingAppeal)
		}
	})
}

func TestVideo_Clone(t *testing.T) {
	v := blockedVideo(t)
	c := v.Clone()

	*c.BlockReason = "changed"
	assert.NotEqual(t, *v.BlockReason, *c.BlockReason)
}

func TestRole_IsAdmin(t *testing.T) {
	for _, r := range AdminRoles {
		assert.True(t, r.IsAdmin(), r)
	}
	for _, r := range []Role{RoleAtleta, RoleAgente, RoleClube, RoleImprensa, RoleTorcedor, Role("")} {
		assert.False(t, r.IsAdmin(), r)
	}
}

func TestDecision_Valid(t *testing.T) {
	assert.True(t, DecisionApprove.Valid())
	assert.True(t, DecisionReject.Valid())
	assert.False(t, Decision("APPROVE").Valid())
	assert.False(t, Decision("").Valid())
}
