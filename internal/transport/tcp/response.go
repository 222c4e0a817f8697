package tcp

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a status and a JSON body, serialized with a fixed header block.
type Response struct {
	Status int
	Body   []byte
}

type messageBody struct {
	Message   string `json:"message"`
	GameEnded bool   `json:"gameEnded,omitempty"`
}

type moveBody struct {
	Move string `json:"move"`
}

var internalErrorBody = []byte(`{"message":"Server error occurred."}`)

func JSON(status int, payload any) *Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Response{Status: http.StatusInternalServerError, Body: internalErrorBody}
	}

	return &Response{Status: status, Body: body}
}

func Message(status int, message string) *Response {
	return JSON(status, messageBody{Message: message})
}

// Bytes renders the full wire form: status line, headers, blank line, body.
func (that *Response) Bytes() []byte {
	header := fmt.Sprintf("HTTP/1.1 %d %s\r\n"+
		"Content-Type: application/json\r\n"+
		"Access-Control-Allow-Origin: *\r\n"+
		"Connection: keep-alive\r\n"+
		"Content-Length: %d\r\n"+
		"\r\n",
		that.Status, http.StatusText(that.Status), len(that.Body))

	return append([]byte(header), that.Body...)
}
