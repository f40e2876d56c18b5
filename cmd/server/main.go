package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/olekventi/chatly/internal/auth"
	"github.com/olekventi/chatly/internal/config"
	"github.com/olekventi/chatly/internal/database"
	"github.com/olekventi/chatly/internal/handler"
	"github.com/olekventi/chatly/internal/notify"
	"github.com/olekventi/chatly/internal/repository"
	"github.com/olekventi/chatly/internal/router"
	"github.com/olekventi/chatly/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	throttleCfg := config.LoadThrottleConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	rights := repository.NewRightsRepo(db)
	rooms := repository.NewRoomRepo(db)
	pending := repository.NewPendingChangeRepo(db)
	resets := repository.NewPasswordResetRepo(db)
	clients := repository.NewClientRepo(db)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.ClientJWTSecret)
	publisher := notify.NewPublisher(cfg.RabbitURL)

	tokenSvc := service.NewTokenService(cfg, issuer, sessions)
	roomSvc := service.NewRoomService(rights, rooms)
	userSvc := service.NewUserService(cfg, users, pending, resets, tokenSvc, roomSvc, publisher)
	clientSvc := service.NewClientService(cfg, issuer, clients)

	authHandler := handler.NewAuthHandler(cfg, userSvc, issuer)
	accountHandler := handler.NewAccountHandler(userSvc)
	clientHandler := handler.NewClientHandler(clientSvc)
	roomHandler := handler.NewRoomHandler(roomSvc, userSvc)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, accountHandler, issuer, throttleCfg, rdb)
	router.RegisterClient(e, clientHandler, issuer, throttleCfg, rdb)
	router.RegisterRooms(e, roomHandler, issuer)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
