// Package main library management API.
//
// @title           Library Management API
// @version         1.0
// @description     library backend (catalog, borrow requests, fines, notifications).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/euroclydon611/lmsf-fyp-backend/app/echoServer"
	authctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/auth"
	bookctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/book"
	notifctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/notification"
	reqctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/request"
	userctrl "github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/controller/user"
	"github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/validation"
	"github.com/euroclydon611/lmsf-fyp-backend/config"
	bookrepo "github.com/euroclydon611/lmsf-fyp-backend/repository/book"
	notificationrepo "github.com/euroclydon611/lmsf-fyp-backend/repository/notification"
	requestrepo "github.com/euroclydon611/lmsf-fyp-backend/repository/request"
	userrepo "github.com/euroclydon611/lmsf-fyp-backend/repository/user"
	authsvc "github.com/euroclydon611/lmsf-fyp-backend/service/auth"
	booksvc "github.com/euroclydon611/lmsf-fyp-backend/service/book"
	notificationsvc "github.com/euroclydon611/lmsf-fyp-backend/service/notification"
	requestsvc "github.com/euroclydon611/lmsf-fyp-backend/service/request"
	"github.com/euroclydon611/lmsf-fyp-backend/util/database"
)

func main() {

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB over pgx
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	rr := requestrepo.New(db)
	nr := notificationrepo.New(db)

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	rs := requestsvc.New(rr, br, ur, nr, log)
	ns := notificationsvc.New(nr)

	// overdue reconciler
	rec := requestsvc.NewReconciler(rr, cfg.FineDailyRate, cfg.FineInterval, log)
	go rec.Run(ctx)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	userC := &userctrl.Controller{Repo: ur, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	reqC := &reqctrl.Controller{Svc: rs, V: v, Log: log}
	notifC := &notifctrl.Controller{Svc: ns, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		User:         userC,
		Book:         bookC,
		Request:      reqC,
		Notification: notifC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "port", port, "fine_interval", cfg.FineInterval.String())

	e.Logger.Fatal(e.Start(":" + port))
}
