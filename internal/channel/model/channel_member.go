package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type ChannelMember struct {
	ChannelID uuid.UUID `bun:",pk,type:uuid"`
	Channel   *Channel  `bun:"rel:belongs-to,join:channel_id=id"`

	GithubID int64 `bun:",pk"`

	// Username denormalized so roster queries skip the users table.
	Username string `bun:",notnull"`

	Role string `bun:",notnull,default:'member'"`

	JoinedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
