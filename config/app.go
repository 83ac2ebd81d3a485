package config

import "time"

type App struct {
	Port          string        `env:"APP_PORT" default:"8080"`
	DatabaseURL   string        `env:"DATABASE_URL,required"`
	JWTSecret     string        `env:"JWT_SECRET,required"`
	FineDailyRate float64       `env:"FINE_DAILY_RATE" default:"10"`
	FineInterval  time.Duration `env:"FINE_INTERVAL" default:"2m"`
	Env           string        `env:"APP_ENV" default:"dev"`
}
