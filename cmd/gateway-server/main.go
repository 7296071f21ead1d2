package main

import (
	"log"

	"team-inbox-backend/internal/api"
	"team-inbox-backend/internal/api/router"
	"team-inbox-backend/internal/database"
	"team-inbox-backend/internal/env"
	"team-inbox-backend/internal/gateway"
	"team-inbox-backend/internal/queue"
	businessprofileservice "team-inbox-backend/internal/service/businessprofile"
	"team-inbox-backend/internal/websocket"

	"github.com/go-redis/redis/v8"
)

func main() {
	env.MustHave(
		env.AWSRegion,
		env.UserSecretKey,
		env.GatewayRedisURL,
	)

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     env.Get(env.GatewayRedisURL),
		Password: env.Get(env.GatewayRedisPass),
	})

	hub := websocket.NewHub(redisClient)
	go hub.Run()

	profiles := businessprofileservice.New(db)
	gw := gateway.New(gateway.NewRedisStore(redisClient), hub, profiles)
	handler := websocket.NewHandler(hub, gw)

	server := api.NewAPIServer(
		":83",
		queueManager,
		db,
		handler,
		gw,
		router.UtilsRoutes("/api/realtime/v1"),
		router.RealtimeRoutes("/api/realtime/v1"),
	)

	server.Run()
}
