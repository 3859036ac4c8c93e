package domain

import "time"

// Message is one chat line. Immutable once created; the server assigns
// the timestamp so every member sees the same canonical ordering.
type Message struct {
	Channel ChannelName `json:"channel,omitempty"`
	Author  string      `json:"user"`
	Text    string      `json:"text"`
	Time    time.Time   `json:"time"`
}

func NewMessage(channel ChannelName, author, text string) Message {
	return Message{
		Channel: channel,
		Author:  author,
		Text:    text,
		Time:    time.Now().UTC(),
	}
}
