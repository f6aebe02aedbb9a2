package usecase

import (
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zendevve/vscord/internal/channel"
	"github.com/Zendevve/vscord/internal/channel/mocks"
	"github.com/Zendevve/vscord/internal/channel/model"
	appErrors "github.com/Zendevve/vscord/pkg/errors"
	"github.com/Zendevve/vscord/pkg/logger"
)

func TestChannelUsecase_Create(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		channelID := uuid.New()

		mockRepo.EXPECT().InviteCodeExists(gomock.Any(), gomock.Any()).Return(false, nil)
		mockRepo.EXPECT().
			CreateChannelWithOwner(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, ch *model.Channel, owner *model.ChannelMember) error {
				assert.Equal(t, "DevTeam", ch.Name)
				assert.Equal(t, int64(1001), ch.OwnerID)
				assert.Len(t, ch.InviteCode, 6)
				assert.Equal(t, model.RoleAdmin, owner.Role)
				assert.Equal(t, "alice", owner.Username)
				ch.ID = channelID
				return nil
			})

		dto, err := uc.Create(t.Context(), channel.CreateCommand{
			OwnerID:       1001,
			OwnerUsername: "alice",
			Name:          "DevTeam",
		})
		require.NoError(t, err)
		assert.Equal(t, channelID, dto.ID)
		assert.Equal(t, "DevTeam", dto.Name)
		assert.Len(t, dto.InviteCode, 6)
	})

	t.Run("name length boundaries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		for _, name := range []string{strings.Repeat("x", 3), strings.Repeat("x", 30)} {
			mockRepo.EXPECT().InviteCodeExists(gomock.Any(), gomock.Any()).Return(false, nil)
			mockRepo.EXPECT().CreateChannelWithOwner(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

			_, err := uc.Create(t.Context(), channel.CreateCommand{OwnerID: 1, OwnerUsername: "a", Name: name})
			assert.NoError(t, err, "name of length %d should pass", len(name))
		}

		for _, name := range []string{"xx", strings.Repeat("x", 31)} {
			_, err := uc.Create(t.Context(), channel.CreateCommand{OwnerID: 1, OwnerUsername: "a", Name: name})
			assert.ErrorIs(t, err, appErrors.ErrInvalidChannelName, "name of length %d should fail", len(name))
		}
	})

	t.Run("guests cannot create channels", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		_, err := uc.Create(t.Context(), channel.CreateCommand{OwnerID: 0, OwnerUsername: "drifter", Name: "DevTeam"})
		assert.ErrorIs(t, err, appErrors.ErrIdentityRequired)
	})

	t.Run("invite code collision retries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		gomock.InOrder(
			mockRepo.EXPECT().InviteCodeExists(gomock.Any(), gomock.Any()).Return(true, nil),
			mockRepo.EXPECT().InviteCodeExists(gomock.Any(), gomock.Any()).Return(false, nil),
		)
		mockRepo.EXPECT().CreateChannelWithOwner(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		_, err := uc.Create(t.Context(), channel.CreateCommand{OwnerID: 1, OwnerUsername: "a", Name: "DevTeam"})
		assert.NoError(t, err)
	})
}

func TestChannelUsecase_Join(t *testing.T) {
	channelID := uuid.New()
	ch := &model.Channel{ID: channelID, Name: "DevTeam", OwnerID: 1001, InviteCode: "ABC234"}

	t.Run("happy path", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		g := mockRepo.EXPECT()
		g.GetChannelByInviteCode(gomock.Any(), "ABC234").Return(ch, nil)
		g.GetMember(gomock.Any(), channelID, int64(1002)).Return(nil, appErrors.ErrNotMember)
		g.CountMembers(gomock.Any(), channelID).Return(1, nil)
		g.AddMember(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, m *model.ChannelMember) error {
			assert.Equal(t, channelID, m.ChannelID)
			assert.Equal(t, model.RoleMember, m.Role)
			assert.Equal(t, "bob", m.Username)
			return nil
		})
		g.ListMembers(gomock.Any(), channelID).Return([]model.ChannelMember{
			{ChannelID: channelID, GithubID: 1001, Username: "alice", Role: model.RoleAdmin},
			{ChannelID: channelID, GithubID: 1002, Username: "bob", Role: model.RoleMember},
		}, nil)

		dto, roster, err := uc.Join(t.Context(), channel.JoinCommand{GithubID: 1002, Username: "bob", InviteCode: "ABC234"})
		require.NoError(t, err)
		assert.Equal(t, "DevTeam", dto.Name)
		require.Len(t, roster, 2)
		assert.Equal(t, "alice", roster[0].Username)
	})

	t.Run("unknown invite code", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		mockRepo.EXPECT().
			GetChannelByInviteCode(gomock.Any(), "ZZZZZZ").
			Return(nil, appErrors.ErrInvalidInviteCode)

		_, _, err := uc.Join(t.Context(), channel.JoinCommand{GithubID: 1002, Username: "bob", InviteCode: "ZZZZZZ"})
		assert.ErrorIs(t, err, appErrors.ErrInvalidInviteCode)
	})

	t.Run("already a member", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		g := mockRepo.EXPECT()
		g.GetChannelByInviteCode(gomock.Any(), "ABC234").Return(ch, nil)
		g.GetMember(gomock.Any(), channelID, int64(1002)).
			Return(&model.ChannelMember{ChannelID: channelID, GithubID: 1002}, nil)

		_, _, err := uc.Join(t.Context(), channel.JoinCommand{GithubID: 1002, Username: "bob", InviteCode: "ABC234"})
		assert.ErrorIs(t, err, appErrors.ErrAlreadyMember)
	})

	t.Run("channel at capacity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		g := mockRepo.EXPECT()
		g.GetChannelByInviteCode(gomock.Any(), "ABC234").Return(ch, nil)
		g.GetMember(gomock.Any(), channelID, int64(1002)).Return(nil, appErrors.ErrNotMember)
		g.CountMembers(gomock.Any(), channelID).Return(model.MaxMembers, nil)

		_, _, err := uc.Join(t.Context(), channel.JoinCommand{GithubID: 1002, Username: "bob", InviteCode: "ABC234"})
		assert.ErrorIs(t, err, appErrors.ErrChannelFull)
	})

	t.Run("guests cannot join", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		_, _, err := uc.Join(t.Context(), channel.JoinCommand{GithubID: 0, Username: "drifter", InviteCode: "ABC234"})
		assert.ErrorIs(t, err, appErrors.ErrIdentityRequired)
	})
}

func TestChannelUsecase_Leave(t *testing.T) {
	channelID := uuid.New()

	t.Run("happy path", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		g := mockRepo.EXPECT()
		g.GetMember(gomock.Any(), channelID, int64(1002)).
			Return(&model.ChannelMember{ChannelID: channelID, GithubID: 1002}, nil)
		g.RemoveMember(gomock.Any(), channelID, int64(1002)).Return(nil)

		assert.NoError(t, uc.Leave(t.Context(), 1002, channelID))
	})

	t.Run("not a member", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockChannelRepository(ctrl)
		uc := NewChannelUsecase(mockRepo, logger.Logger{})

		mockRepo.EXPECT().
			GetMember(gomock.Any(), channelID, int64(1002)).
			Return(nil, appErrors.ErrNotMember)

		assert.ErrorIs(t, uc.Leave(t.Context(), 1002, channelID), appErrors.ErrNotMember)
	})
}

func TestRandomCode_Shape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := randomCode()
		require.NoError(t, err)
		require.Len(t, code, inviteCodeLen)
		for _, r := range code {
			assert.Contains(t, inviteAlphabet, string(r))
			assert.NotContains(t, "0OI1", string(r))
		}
		seen[code] = true
	}
	// 200 draws from a ~10^9 space should never collide.
	assert.Greater(t, len(seen), 195)
}
