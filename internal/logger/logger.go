package logger

import (
	"context"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	appCtx "github.com/baechuer/real-time-ressys/services/identity-service/internal/pkg/context"
)

var Logger = zerolog.Nop()

func Init() {
	InitWithWriter(os.Stdout)
}

func InitWithWriter(w io.Writer) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	format := os.Getenv("LOG_FORMAT") // "json" or "console"
	if format == "" {
		format = "console"
	}

	timeFormat := os.Getenv("LOG_TIME_FORMAT")
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	var ctx zerolog.Context
	if format == "json" {
		ctx = zerolog.New(w).With().Timestamp()
	} else {
		ctx = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: timeFormat,
		}).With().Timestamp()
	}

	if caller, _ := strconv.ParseBool(os.Getenv("LOG_CALLER")); caller {
		ctx = ctx.Caller()
	}

	Logger = ctx.Logger().Level(level)

	// set global
	zlog.Logger = Logger
}

// WithCtx returns a child logger carrying the request id from ctx, if any.
func WithCtx(ctx context.Context) *zerolog.Logger {
	l := Logger
	if id := appCtx.GetRequestID(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}
