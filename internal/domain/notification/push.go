package notification

import (
	"bytes"
	"encoding/json"
)

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ParsePush turns an inbound push payload into a Message. Structured
// payloads are JSON objects with title/body; anything else is used as the
// body text, and an empty payload gets the generic body.
func ParsePush(data []byte) Message {
	msg := Message{
		Title:              DefaultTitle,
		Body:               DefaultBody,
		Tag:                Tag,
		RequireInteraction: true,
		Actions:            DefaultActions,
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return msg
	}

	var p pushPayload
	if trimmed[0] == '{' && json.Unmarshal(trimmed, &p) == nil {
		if p.Title != "" {
			msg.Title = p.Title
		}
		if p.Body != "" {
			msg.Body = p.Body
		}
		return msg
	}

	msg.Body = string(trimmed)
	return msg
}
