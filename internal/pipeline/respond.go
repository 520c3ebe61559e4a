package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the structured result every handler invocation produces: a
// numeric status and a JSON body with a human-readable message plus
// operation-specific fields.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// JSON builds a response with the payload marshalled into the body.
func JSON(status int, payload any) Response {
	data, err := json.Marshal(payload)
	if err != nil {
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       fmt.Sprintf(`{"error":"encode response: %s"}`, err),
		}
	}
	return Response{StatusCode: status, Body: string(data)}
}

// Errorf builds an error response with a formatted message.
func Errorf(status int, format string, args ...any) Response {
	return JSON(status, map[string]string{"error": fmt.Sprintf(format, args...)})
}
