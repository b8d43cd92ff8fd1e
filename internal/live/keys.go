// Package live keeps read subscriptions current. A query evaluated through
// Tracker.Subscribe records the keys it reads on a ReadSet; writes made
// through the tracked decorators invalidate those keys after commit and
// every subscription that read one of them is evaluated again.
package live

import "github.com/google/uuid"

// Key names a unit of data a query can depend on.
type Key string

const (
	ChannelsKey    Key = "channels"
	AllMessagesKey Key = "messages"
)

func ChannelKey(id uuid.UUID) Key { return Key("channel:" + id.String()) }
func MessagesKey(channelID uuid.UUID) Key { return Key("messages:" + channelID.String()) }
func ProfileKey(userID uuid.UUID) Key { return Key("profile:" + userID.String()) }
func AccountKey(userID uuid.UUID) Key { return Key("account:" + userID.String()) }
func BlobKey(ref string) Key { return Key("blob:" + ref) }
