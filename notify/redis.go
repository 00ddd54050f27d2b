package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel trả về tên kênh redis cho một suất chiếu; websocket handler
// subscribe đúng kênh này.
func Channel(showtimeID uint) string {
	return fmt.Sprintf("showtime:%d", showtimeID)
}

type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// PublishSeatEvent bắn event sang kênh của suất chiếu. Chạy nền để không
// chặn request; lỗi redis chỉ log.
func (r *Redis) PublishSeatEvent(ev SeatEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		payload, err := json.Marshal(ev)
		if err != nil {
			log.Printf("notify: marshal seat event: %v", err)
			return
		}
		if err := r.client.Publish(ctx, Channel(ev.ShowtimeID), payload).Err(); err != nil {
			log.Printf("notify: publish showtime %d: %v", ev.ShowtimeID, err)
		}
	}()
}
