package handler

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/redis/go-redis/v9"
)

var (
	seatConnections = make(map[uint]map[*websocket.Conn]bool)
	seatMutex       sync.Mutex
)

// WebSocket handler cho ghế suất chiếu: client connect vào room theo
// showtime, nhận mọi seat event publish lên kênh redis tương ứng.
func SeatWebsocket(c *websocket.Conn) {
	showtimeIdStr := c.Params("id")
	showtimeId, err := strconv.ParseUint(showtimeIdStr, 10, 64)
	if err != nil {
		log.Printf("Invalid showtime id: %s", showtimeIdStr)
		c.Close()
		return
	}
	id := uint(showtimeId)

	seatMutex.Lock()
	if seatConnections[id] == nil {
		seatConnections[id] = make(map[*websocket.Conn]bool)
	}
	seatConnections[id][c] = true
	seatMutex.Unlock()

	defer func() {
		seatMutex.Lock()
		delete(seatConnections[id], c)
		if len(seatConnections[id]) == 0 {
			delete(seatConnections, id)
		}
		seatMutex.Unlock()
		c.Close()
	}()

	// giữ connection, không có logic client gửi lên
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// StartSeatFanout subscribe mọi kênh showtime:* và đẩy nguyên payload
// xuống các connection của room tương ứng. Chạy nền đến khi ctx hủy.
func StartSeatFanout(ctx context.Context, client *redis.Client) {
	pubsub := client.PSubscribe(ctx, "showtime:*")

	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				idStr := strings.TrimPrefix(msg.Channel, "showtime:")
				showtimeId, err := strconv.ParseUint(idStr, 10, 64)
				if err != nil {
					continue
				}
				broadcastSeatEvent(uint(showtimeId), []byte(msg.Payload))
			}
		}
	}()
}

func broadcastSeatEvent(showtimeId uint, payload []byte) {
	seatMutex.Lock()
	conns := make([]*websocket.Conn, 0, len(seatConnections[showtimeId]))
	for conn := range seatConnections[showtimeId] {
		conns = append(conns, conn)
	}
	seatMutex.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("Error broadcasting seat event: %v", err)
		}
	}
}
