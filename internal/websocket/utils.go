package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/stemsi/surveylab/internal/response"
)

const (
	writeWait = 10 * time.Second
	// readWait is generous since a user may sit on one wizard step for a while.
	readWait = 15 * time.Minute
	// MaxMessageSize bounds a single client message.
	MaxMessageSize = 16 << 10
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse carrying the API error code.
func WriteError(conn *websocket.Conn, code response.ErrCode) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: response.GetMessage(code),
	})
}

// ReadJSON reads and decodes one message, refreshing the read deadline.
func ReadJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
