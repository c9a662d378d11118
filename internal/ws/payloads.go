package ws

import "taskboard/internal/domain"

// Message is the frame exchanged on the change feed.
type Message struct {
	Type  string             `json:"type"`
	Event *domain.BoardEvent `json:"event,omitempty"`
}
