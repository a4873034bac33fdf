package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/config"
	"github.com/gymboo/gym-backend/internal/database"
	"github.com/gymboo/gym-backend/internal/handler"
	"github.com/gymboo/gym-backend/internal/mailer"
	"github.com/gymboo/gym-backend/internal/middleware"
	"github.com/gymboo/gym-backend/internal/queue"
	"github.com/gymboo/gym-backend/internal/repository"
	"github.com/gymboo/gym-backend/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	members := repository.NewMemberRepo(db)
	tokens := repository.NewTokenRepo(db)
	classes := repository.NewClassRepo(db)
	reservations := repository.NewReservationRepo(db)
	orders := repository.NewOrderRepo(db)
	products := repository.NewProductRepo(db)
	reviews := repository.NewReviewRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	articles := repository.NewArticleRepo(db)
	coaches := repository.NewCoachRepo(db)
	locations := repository.NewLocationRepo(db)
	friends := repository.NewFriendRepo(db)
	chats := repository.NewChatRepo(db)
	addresses := repository.NewAddressRepo(db)

	mail := mailer.New(cfg)
	if mail == nil {
		log.Println("smtp not configured; password-reset mail disabled")
	}

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, members, tokens),
		Password: handler.NewPasswordHandler(cfg, members, tokens, mail),
		Profile:  handler.NewProfileHandler(members),
		Class:    handler.NewClassHandler(classes, reservations),
		Order:    handler.NewOrderHandler(orders, products),
		Product:  handler.NewProductHandler(products, reviews, favorites),
		Article:  handler.NewArticleHandler(articles),
		Coach:    handler.NewCoachHandler(coaches, locations),
		Friend:   handler.NewFriendHandler(friends),
		Chat:     handler.NewChatHandler(chats, friends),
		Address:  handler.NewAddressHandler(addresses),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	// The response cache is wired per route so it runs after auth; a global
	// Use would key private responses before the member id is known.
	cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	router.Register(e, h, cfg.JWTSecret, cached)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
