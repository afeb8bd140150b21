package hub

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum command size accepted from a peer
	maxMessageSize = 64 * 1024
)

// Reply types sent to a WebSocket client after a command
const (
	ReplyAck   = "ack"
	ReplyError = "error"
)

// Reply answers one inbound command
type Reply struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Error   string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and streams events to the client.
// Every text message received is treated as a command.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c, ok := h.attach("websocket")
	if !ok {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub stopped"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	logger := h.logger.With(zap.String("client_id", c.id))
	replies := make(chan []byte, clientBufferSize)
	go h.writePump(conn, c, replies, logger)
	h.readPump(conn, c, replies, logger)
}

// readPump handles inbound commands until the peer goes away
func (h *Hub) readPump(conn *websocket.Conn, c *client, replies chan<- []byte, logger *zap.Logger) {
	defer func() {
		h.detach(c)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			logger.Debug("Ignoring binary message")
			continue
		}

		reply := h.handleCommand(message)
		data, _ := json.Marshal(reply)
		select {
		case replies <- data:
		default:
			logger.Warn("Reply buffer full, dropping reply", zap.String("command", reply.Command))
		}
	}
}

// handleCommand accepts either {"command": "..."} or a bare line of text
func (h *Hub) handleCommand(message []byte) Reply {
	message = bytes.TrimSpace(message)

	command := string(message)
	var req struct {
		Command string `json:"command"`
	}
	if len(message) > 0 && message[0] == '{' && json.Unmarshal(message, &req) == nil {
		command = req.Command
	}

	if h.commander == nil {
		return Reply{Type: ReplyError, Command: command, Error: "commands not accepted"}
	}
	if strings.ContainsAny(command, "\r\n") {
		return Reply{Type: ReplyError, Command: command, Error: "command must be a single line"}
	}
	if err := h.commander.Send(command); err != nil {
		return Reply{Type: ReplyError, Command: command, Error: err.Error()}
	}
	return Reply{Type: ReplyAck, Command: command}
}

// writePump sends events, replies and pings until the client is detached
func (h *Hub) writePump(conn *websocket.Conn, c *client, replies <-chan []byte, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	write := func(msg []byte) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debug("Failed to write message", zap.Error(err))
			return false
		}
		return true
	}

	for {
		select {
		case msg, ok := <-c.events:
			if !ok {
				// The hub closed the channel
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !write(msg) {
				return
			}

		case msg := <-replies:
			if !write(msg) {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
