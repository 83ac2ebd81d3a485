package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	authctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/auth"
	bookctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/book"
	notifctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/notification"
	reqctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/request"
	userctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/user"
)

type C struct {
	Auth         *authctrl.Controller
	User         *userctrl.Controller
	Book         *bookctrl.Controller
	Request      *reqctrl.Controller
	Notification *notifctrl.Controller
	JWTSecret    string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// user_id extraction
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenObj := ctx.Get("user")
			if tokenObj == nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			tok, ok := tokenObj.(*jwt.Token)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			sub, ok := claims["sub"].(float64)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", int64(sub))
			return next(ctx)
		}
	})

	// Users
	auth.GET("/users", c.User.List)
	auth.GET("/users/me", c.User.Me)
	auth.PUT("/users/password", c.Auth.UpdatePassword)
	auth.DELETE("/users/:id", c.User.Delete)

	// Books
	auth.GET("/books", c.Book.List)
	auth.GET("/books/:id", c.Book.Detail)
	auth.POST("/books", c.Book.Create)
	auth.PUT("/books/:id", c.Book.Update)
	auth.DELETE("/books/:id", c.Book.Delete)

	// Borrow requests
	auth.POST("/requests", c.Request.Submit)
	auth.GET("/requests", c.Request.All)
	auth.GET("/requests/my", c.Request.My)
	auth.GET("/requests/approved-by-me", c.Request.ByPatron)
	auth.GET("/requests/status/:status", c.Request.ByStatus)
	auth.GET("/requests/export", c.Request.Export)
	auth.POST("/requests/direct-checkout", c.Request.DirectCheckout)
	auth.POST("/requests/:id/approve", c.Request.Approve)
	auth.POST("/requests/:id/checkout", c.Request.Checkout)
	auth.POST("/requests/:id/checkin", c.Request.CheckIn)

	// Notifications
	auth.GET("/notifications", c.Notification.My)
	auth.PUT("/notifications/:id/read", c.Notification.MarkRead)
}
