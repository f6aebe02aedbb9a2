package channel

import "github.com/google/uuid"

// NOTE: commands travel from session to usecase, DTOs travel back.

type CreateCommand struct {
	OwnerID       int64
	OwnerUsername string
	Name          string
}

type JoinCommand struct {
	GithubID   int64
	Username   string
	InviteCode string
}

type ChannelDTO struct {
	ID         uuid.UUID
	Name       string
	InviteCode string
}
