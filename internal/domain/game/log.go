package game

import "time"

// LogEvent is one append-only record of something that happened in a room.
type LogEvent struct {
	ID         string     `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	Message    string     `json:"log_message"`
	PlayerID   string     `json:"user_id"`
	RoomID     string     `json:"room_id,omitempty"`
	Team       string     `json:"team_id,omitempty"`
	Visibility Visibility `json:"privacy"`
}

// ChatMessage is one chat line, scoped to a team or the whole room.
type ChatMessage struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Body       string    `json:"message_body"`
	PlayerID   string    `json:"user_id"`
	PlayerName string    `json:"user_name"`
	RoomID     string    `json:"room_id"`
	Scope      ChatScope `json:"scope"`
	Team       string    `json:"team_id,omitempty"`
}
