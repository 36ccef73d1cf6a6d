// internal/domain/reminder/channel.go
package reminder

import "strings"

// Channel identifies how a reminder is delivered.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// DefaultChannel is used when a request selects no channel at all.
const DefaultChannel = "email"

var channelsByLabel = map[string]Channel{
	"email": ChannelEmail,
	"sms":   ChannelSMS,
	"push":  ChannelPush,
}

// ChannelFor maps a user-facing label to its channel identifier.
func ChannelFor(label string) (Channel, bool) {
	ch, ok := channelsByLabel[strings.ToLower(strings.TrimSpace(label))]
	return ch, ok
}
