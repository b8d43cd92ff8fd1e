package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarRef   *string   `json:"avatar_ref,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProfileView struct {
	Profile
	AvatarURL *string `json:"avatar_url"`
}

type AvatarAction int

const (
	AvatarKeep AvatarAction = iota
	AvatarClear
	AvatarSet
)

// AvatarChange describes what a profile update does to the stored avatar.
// The zero value keeps the current avatar.
//
// Decoded from JSON, an absent field keeps, null clears and a string sets.
type AvatarChange struct {
	Action AvatarAction
	Ref    string
}

func KeepAvatar() AvatarChange { return AvatarChange{Action: AvatarKeep} }
func ClearAvatar() AvatarChange { return AvatarChange{Action: AvatarClear} }
func SetAvatar(ref string) AvatarChange { return AvatarChange{Action: AvatarSet, Ref: ref} }

// Apply returns the avatar reference that results from applying the change
// to current.
func (c AvatarChange) Apply(current *string) *string {
	switch c.Action {
	case AvatarClear:
		return nil
	case AvatarSet:
		ref := c.Ref
		return &ref
	default:
		return current
	}
}

func (c *AvatarChange) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ClearAvatar()
		return nil
	}
	var ref string
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	*c = SetAvatar(ref)
	return nil
}
