package api

import (
	"encoding/json"
	"fmt"
)

// envelope wraps every server response
type envelope[T any] struct {
	Message string `json:"message"`
	Results T      `json:"results"`
}

func decode[T any](body []byte) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to parse response: %w", err)
	}
	return env.Results, nil
}

// envelopeMessage extracts the server's message from an error body, if any
func envelopeMessage(body []byte) string {
	var env envelope[json.RawMessage]
	if json.Unmarshal(body, &env) != nil {
		return ""
	}
	return env.Message
}

type favoriteRequest struct {
	ContentID int `json:"contentId"`
}

type watchStatusRequest struct {
	ContentID int    `json:"contentId"`
	Status    string `json:"status"`
	Recursive bool   `json:"recursive"`
}
