package main

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"cinema_booking/booking"
	"cinema_booking/config"
	"cinema_booking/database"
	"cinema_booking/handler"
	"cinema_booking/lock"
	"cinema_booking/notify"
	"cinema_booking/router"
	"cinema_booking/store"
	"cinema_booking/sweeper"
	"cinema_booking/utils"
)

func main() {
	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.ConfigOr("FRONTEND_URL", "http://localhost:5173"),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-Session-Id",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	database.ConnectDB()
	st := store.NewGorm(database.DB)

	ctx := context.Background()

	// không cấu hình redis thì chạy không realtime, nghiệp vụ vẫn đủ
	var notifier notify.Notifier = notify.Nop{}
	if addr := config.Config("REDIS_ADDR"); addr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: addr})
		notifier = notify.NewRedis(redisClient)
		handler.StartSeatFanout(ctx, redisClient)
	}

	clock := clockwork.NewRealClock()
	gateway := booking.NewVNPay(clock)

	locks := lock.NewManager(st, clock, notifier)
	bookings := booking.NewService(st, clock, notifier, gateway, utils.NewMailer())
	sw := sweeper.New(st, clock, notifier, bookings)

	// quét lease hết hạn và đơn CASH quá hạn mỗi phút
	scheduler, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		log.Fatal(err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() { sw.Run(ctx) }),
	)
	if err != nil {
		log.Fatal(err)
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	// dọn bản ghi Payment PENDING bỏ dở mỗi đêm
	c := cron.New()
	c.AddFunc("0 3 * * *", func() {
		n, err := st.PurgePendingPaymentsBefore(ctx, clock.Now().Add(-24*time.Hour))
		if err != nil {
			log.Println("purge pending payments:", err)
			return
		}
		if n > 0 {
			log.Printf("purged %d stale pending payments", n)
		}
	})
	c.Start()
	defer c.Stop()

	handler.Setup(st, locks, bookings, gateway)
	router.SetupRoutes(app)
	log.Fatal(app.Listen(":8002"))
}
