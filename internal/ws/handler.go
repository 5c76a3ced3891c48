package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"haytruco/internal/service/match"
	"haytruco/internal/service/room"
	appErr "haytruco/pkg/errors"
	"haytruco/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	rooms *room.Service
}

func NewHandler(rooms *room.Service) *Handler {
	return &Handler{rooms: rooms}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

func (h *Handler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New WebSocket connection", zap.String("remote", conn.RemoteAddr().String()))

	client := newClient(conn, h.rooms)
	client.run()
}

type client struct {
	conn      *websocket.Conn
	rooms     *room.Service
	out       chan room.OutgoingMessage
	done      chan struct{}
	pingEvery time.Duration

	// current room subscription, readPump goroutine only
	roomID string
	subID  int64
}

func newClient(conn *websocket.Conn, rooms *room.Service) *client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	return &client{
		conn:      conn,
		rooms:     rooms,
		out:       make(chan room.OutgoingMessage, 16),
		done:      make(chan struct{}),
		pingEvery: 25 * time.Second,
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.leaveRoom()
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error", zap.Error(err))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var incoming struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.sendError("invalid payload")
			continue
		}
		if incoming.Type == "" {
			continue
		}

		if err := c.handleMessage(incoming.Type, incoming.Data); err != nil {
			c.sendError(fmt.Sprintf("%s failed: %v", incoming.Type, err))
		}
	}
}

func (c *client) handleMessage(msgType string, data json.RawMessage) error {
	ctx := context.Background()

	switch msgType {
	case "ping":
		c.send(room.OutgoingMessage{Type: "pong", Data: gin.H{"message": "pong"}})
		return nil

	case "create_game":
		rm, err := c.rooms.Create(ctx)
		if err != nil {
			return err
		}
		c.enterRoom(rm)
		c.send(room.OutgoingMessage{Type: "game_created", Data: gin.H{"roomId": rm.ID()}})
		return nil

	case "join_game":
		var payload struct {
			RoomID string `json:"roomId"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		rm, err := c.rooms.Get(payload.RoomID)
		if err != nil {
			return err
		}
		c.enterRoom(rm)
		c.send(room.OutgoingMessage{Type: "game_joined", Data: gin.H{"roomId": rm.ID()}})
		return nil

	case "start_game":
		var payload struct {
			RoomID  string             `json:"roomId"`
			Players []match.SeatConfig `json:"players"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		rm, err := c.resolveRoom(payload.RoomID)
		if err != nil {
			return err
		}
		return rm.Start(ctx, payload.Players)

	case "stop_game":
		var payload struct {
			RoomID string `json:"roomId"`
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &payload); err != nil {
				return err
			}
		}
		rm, err := c.resolveRoom(payload.RoomID)
		if err != nil {
			return err
		}
		rm.Stop()
		return nil

	case "update_speed":
		var payload struct {
			RoomID  string `json:"roomId"`
			SpeedMs int    `json:"speed"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		rm, err := c.resolveRoom(payload.RoomID)
		if err != nil {
			return err
		}
		rm.SetSpeed(time.Duration(payload.SpeedMs) * time.Millisecond)
		return nil

	default:
		return fmt.Errorf("unknown message type %q", msgType)
	}
}

// resolveRoom prefers the explicit room code, falling back to the room this
// connection already joined.
func (c *client) resolveRoom(roomID string) (*room.Room, error) {
	if roomID == "" {
		roomID = c.roomID
	}
	if roomID == "" {
		return nil, errors.New("no room joined")
	}
	rm, err := c.rooms.Get(roomID)
	if err != nil {
		if errors.Is(err, appErr.ErrRoomNotFound) {
			return nil, fmt.Errorf("room %s not found", roomID)
		}
		return nil, err
	}
	return rm, nil
}

func (c *client) enterRoom(rm *room.Room) {
	c.leaveRoom()

	subID, ch := rm.Subscribe()
	c.roomID = rm.ID()
	c.subID = subID

	// Forward until the room closes the channel (on unsubscribe or room
	// teardown).
	go func() {
		for msg := range ch {
			select {
			case c.out <- msg:
			case <-c.done:
				return
			}
		}
	}()
}

func (c *client) leaveRoom() {
	if c.roomID == "" {
		return
	}
	if rm, err := c.rooms.Get(c.roomID); err == nil {
		rm.Unsubscribe(c.subID)
	}
	c.roomID = ""
	c.subID = 0
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.out:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Log.Info("WS write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) send(msg room.OutgoingMessage) {
	select {
	case c.out <- msg:
	case <-c.done:
	}
}

func (c *client) sendError(message string) {
	c.send(room.OutgoingMessage{Type: "error", Data: gin.H{"message": message}})
}
