package domain

type (
	// ChannelName is a text chat topic.
	ChannelName string
	// RoomName is a voice presence group.
	RoomName string
)
