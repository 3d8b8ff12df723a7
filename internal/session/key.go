// Package session builds and splits conversation session ids.
//
// Session ids follow the AstrBot/NapCat canonical format:
//
//	{platform}:{channelType}:{groupId}
//
// Example:
//
//	napcat:GroupMessage:12345678
//
// Ids are matched literally everywhere (deny/allow lists, push rule sources,
// push destinations): no case folding, no platform-name normalization.
package session

import (
	"fmt"
	"strings"
)

const (
	// Platform is the connector name used in every session id this bot emits.
	Platform = "napcat"

	// ChannelGroup tags group-chat sessions.
	ChannelGroup = "GroupMessage"
)

// GroupSID builds the full session id for a group chat.
func GroupSID(groupID string) string {
	return fmt.Sprintf("%s:%s:%s", Platform, ChannelGroup, groupID)
}

// GroupID extracts the trailing group id from a full session id.
// Returns ("", false) if the id is not a three-segment session id.
func GroupID(sid string) (string, bool) {
	parts := strings.Split(sid, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
