package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxMembers caps the distinct-member count of any channel.
const MaxMembers = 50

type Channel struct {
	ID uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`

	// Name is 3-30 characters, validated at the usecase boundary.
	Name string `bun:",notnull"`

	// Ownership & metadata
	OwnerID int64 `bun:",notnull"`

	// InviteCode is 6 characters from a confusable-free alphabet,
	// unique among active channels.
	InviteCode string `bun:",unique,notnull"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
