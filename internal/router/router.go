// Package router wires every HTTP route to its handler and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/handler"
	"github.com/gymboo/gym-backend/internal/middleware"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
	Auth     *handler.AuthHandler
	Password *handler.PasswordHandler
	Profile  *handler.ProfileHandler
	Class    *handler.ClassHandler
	Order    *handler.OrderHandler
	Product  *handler.ProductHandler
	Article  *handler.ArticleHandler
	Coach    *handler.CoachHandler
	Friend   *handler.FriendHandler
	Chat     *handler.ChatHandler
	Address  *handler.AddressHandler
}

// Register mounts all routes. Browse endpoints run OptionalAuth so listings
// can decorate rows with the caller's likes; everything that acts on behalf
// of a member runs the required JWT middleware. The response cache wraps only
// public catalogue reads and always runs after the route's auth middleware so
// its key sees the resolved member id; member-private endpoints and
// freshness-critical reads such as class occupancy are never cached.
func Register(e *echo.Echo, h Handlers, jwtSecret string, cached echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	required := middleware.JWTAuth(jwtSecret)
	optional := middleware.OptionalAuth(jwtSecret)
	if cached == nil {
		cached = middleware.Passthrough
	}

	// Accounts and sessions.
	e.POST("/register/api", h.Auth.Register)
	e.POST("/login-jwt", h.Auth.LoginJWT)
	auth := e.Group("/v1/auth")
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	e.GET("/memberCenter/membername", h.Auth.MemberName, required)

	// Profile.
	member := e.Group("/api/member", required)
	member.GET("/get-profile", h.Profile.GetProfile)
	member.PUT("/edit-profile", h.Profile.EditProfile)
	e.GET("/gymfriends/api", h.Profile.GymFriends)

	// Password flows.
	change := e.Group("/change-password", required)
	change.POST("/confirm-password", h.Password.ConfirmPassword)
	change.PUT("/reset", h.Password.ChangePassword)
	e.POST("/forget-password", h.Password.ForgetPassword)
	e.PUT("/forget-password/reset-password", h.Password.ResetPassword)

	// Classes and reservations.
	classes := e.Group("/classes/api")
	classes.GET("", h.Class.Calendar, cached)
	classes.GET("/:id", h.Class.Occupancy)
	classes.GET("/reservations", h.Class.MyReservations, required)
	classes.POST("/reservations", h.Class.Book, required)
	classes.PUT("/reservations", h.Class.CancelReservation, required)

	// Rental orders.
	carts := e.Group("/carts/api", required)
	carts.POST("", h.Order.Place)
	carts.POST("/:id/cancel", h.Order.Cancel)
	carts.GET("/:id/api", h.Order.List)

	// Catalogue, reviews, favorites.
	products := e.Group("/products/api")
	products.GET("", h.Product.List, optional, cached)
	products.GET("/:id", h.Product.Detail, optional, cached)
	products.GET("/:id/reviews", h.Product.ListReviews, cached)
	products.GET("/review", h.Product.Reviewable, required)
	products.GET("/review/pending", h.Product.PendingReviews, required)
	products.POST("/add-review", h.Product.AddReview, required)
	products.POST("/edit-review", h.Product.EditReview, required)
	products.GET("/toggle-like/:id", h.Product.ToggleLike, required)
	products.GET("/favorites", h.Product.ListFavorites, required)
	products.DELETE("/favorites/:id", h.Product.RemoveFavorite, required)

	// Articles.
	articles := e.Group("/articles/api")
	articles.GET("", h.Article.List, optional, cached)
	articles.GET("/top-five", h.Article.TopFive, cached)
	articles.GET("/favorites", h.Article.Liked, required)
	articles.GET("/toggle-likes/:id", h.Article.ToggleLike, required)
	articles.GET("/:id", h.Article.Get)

	// Coaches and locations.
	e.GET("/coaches/api", h.Coach.List, cached)
	e.GET("/coaches/api/:id", h.Coach.Detail, cached)
	e.GET("/locations/api", h.Coach.ListLocations, cached)

	// Friends and chat.
	friends := e.Group("/friends/api", required)
	friends.GET("", h.Friend.List)
	friends.GET("/invite", h.Friend.Invites)
	friends.POST("/request", h.Friend.Request)
	friends.POST("/accept", h.Friend.Accept)

	chats := e.Group("/chats/api", required)
	chats.GET("", h.Chat.Rooms)
	chats.GET("/chatroom/:id", h.Chat.Messages)
	chats.POST("/sendMsg", h.Chat.SendMsg)
	chats.POST("/readMsg", h.Chat.ReadMsg)
	chats.POST("/deleteChatroom", h.Chat.DeleteChatroom)
	chats.GET("/:id", h.Chat.OpenRoom)

	// Address book.
	addresses := e.Group("/address-book/api", required)
	addresses.GET("", h.Address.List)
	addresses.POST("", h.Address.Create)
	addresses.GET("/:id", h.Address.Get)
	addresses.PUT("/:id", h.Address.Update)
	addresses.DELETE("/:id", h.Address.Delete)
}
