package onebot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// idParam sends numeric-looking ids as JSON numbers: some OneBot
// implementations reject quoted group/user ids.
func idParam(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

// SetMsgEmojiLike attaches (set=true) or removes (set=false) a reaction on a
// message. NapCat wants emoji_id as a string.
func (c *Client) SetMsgEmojiLike(ctx context.Context, messageID string, emojiID int, set bool) error {
	_, err := c.call(ctx, "set_msg_emoji_like", map[string]any{
		"message_id": idParam(messageID),
		"emoji_id":   strconv.Itoa(emojiID),
		"set":        set,
	})
	return err
}

// GetGroupMemberInfo fetches a group member's nickname and card.
func (c *Client) GetGroupMemberInfo(ctx context.Context, groupID, userID string) (MemberInfo, error) {
	data, err := c.call(ctx, "get_group_member_info", map[string]any{
		"group_id": idParam(groupID),
		"user_id":  idParam(userID),
	})
	if err != nil {
		return MemberInfo{}, err
	}
	var info MemberInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return MemberInfo{}, fmt.Errorf("onebot: decode member info: %w", err)
	}
	return info, nil
}

// GetGroupInfo fetches a group's display name.
func (c *Client) GetGroupInfo(ctx context.Context, groupID string) (GroupInfo, error) {
	data, err := c.call(ctx, "get_group_info", map[string]any{
		"group_id": idParam(groupID),
	})
	if err != nil {
		return GroupInfo{}, err
	}
	var info GroupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return GroupInfo{}, fmt.Errorf("onebot: decode group info: %w", err)
	}
	return info, nil
}

// GetMsg fetches a message's content as a segment list. Implementations that
// return the content as a single string get it wrapped in one text segment.
func (c *Client) GetMsg(ctx context.Context, messageID string) ([]Segment, error) {
	data, err := c.call(ctx, "get_msg", map[string]any{
		"message_id": idParam(messageID),
	})
	if err != nil {
		return nil, err
	}
	var msg struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("onebot: decode message: %w", err)
	}
	return decodeMessageField(msg.Message)
}

// decodeMessageField accepts both wire forms of a message body: a segment
// array or a bare CQ string.
func decodeMessageField(raw json.RawMessage) ([]Segment, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var segs []Segment
	if err := json.Unmarshal(raw, &segs); err == nil {
		return segs, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("onebot: message is neither segments nor string")
	}
	return []Segment{TextSegment(s)}, nil
}

// SendGroupMsg delivers a segment chain to a group.
func (c *Client) SendGroupMsg(ctx context.Context, groupID string, segments []Segment) error {
	_, err := c.call(ctx, "send_group_msg", map[string]any{
		"group_id": idParam(groupID),
		"message":  segments,
	})
	return err
}
