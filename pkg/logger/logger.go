package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var l *zap.Logger

// Init builds the global logger. Production env gets JSON output at info
// level, everything else a colored console logger at debug.
func Init(env string) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	var err error
	l, err = cfg.Build()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
}

func Get() *zap.Logger {
	if l == nil {
		Init("development")
	}
	return l
}
