package store

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// usersFromUpdate walks an update and collects every embedded user
// identity. The walk is an explicit per-shape visitor: each event type
// declares exactly which sub-fields may carry a user, instead of
// reflecting over arbitrary structures. An update may nest several users
// (a forwarded message carries its original sender plus the forwarder).
func usersFromUpdate(u *tgbotapi.Update) []*tgbotapi.User {
	var users []*tgbotapi.User

	for _, m := range []*tgbotapi.Message{u.Message, u.EditedMessage, u.ChannelPost, u.EditedChannelPost} {
		users = appendMessageUsers(users, m, 0)
	}
	if q := u.CallbackQuery; q != nil {
		users = appendUser(users, q.From)
		users = appendMessageUsers(users, q.Message, 0)
	}
	if q := u.InlineQuery; q != nil {
		users = appendUser(users, q.From)
	}
	if r := u.ChosenInlineResult; r != nil {
		users = appendUser(users, r.From)
	}
	if m := u.MyChatMember; m != nil {
		users = appendUser(users, &m.From)
		users = appendUser(users, m.NewChatMember.User)
	}
	if m := u.ChatMember; m != nil {
		users = appendUser(users, &m.From)
		users = appendUser(users, m.NewChatMember.User)
	}

	return users
}

// appendMessageUsers collects the author plus every nested identity a
// message can carry. depth caps the reply/pin recursion; the transport
// only ever nests one level, anything deeper is malformed.
func appendMessageUsers(users []*tgbotapi.User, m *tgbotapi.Message, depth int) []*tgbotapi.User {
	if m == nil || depth > 2 {
		return users
	}
	users = appendUser(users, m.From)
	users = appendUser(users, m.ForwardFrom)
	users = appendUser(users, m.ViaBot)
	users = appendUser(users, m.LeftChatMember)
	for i := range m.NewChatMembers {
		users = appendUser(users, &m.NewChatMembers[i])
	}
	users = appendMessageUsers(users, m.ReplyToMessage, depth+1)
	users = appendMessageUsers(users, m.PinnedMessage, depth+1)
	return users
}

func appendUser(users []*tgbotapi.User, u *tgbotapi.User) []*tgbotapi.User {
	if u == nil || u.ID == 0 {
		return users
	}
	return append(users, u)
}
