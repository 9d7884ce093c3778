package logging

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logLevelKey  = "LOG_LEVEL"
	logLevelProd = "prod"
	logLevelELK  = "elk"
)

type writeSyncer struct {
	io.Writer
}

func (ws writeSyncer) Sync() error { return nil }

// fileSyncer returns a rotating file sink for the given log file.
func fileSyncer(logName string) zapcore.WriteSyncer {
	return writeSyncer{&lumberjack.Logger{
		Filename:   logName,
		MaxSize:    20, // MB
		MaxBackups: 5,
		MaxAge:     28, // days
		LocalTime:  true,
	}}
}

// SetupLogger builds the process logger: JSON to a rotating file plus
// a human console, errors split onto stderr. LOG_LEVEL=elk switches to
// the ECS encoder for log shipping.
func SetupLogger(fileName string) *zap.Logger {
	viper.AutomaticEnv()
	if strings.EqualFold(viper.GetString(logLevelKey), logLevelELK) {
		return setupLoggerELK()
	}

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})
	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl < zapcore.ErrorLevel
	})

	logFile := fileSyncer(fileName)
	consoleDebugging := zapcore.Lock(os.Stdout)
	consoleErrors := zapcore.Lock(os.Stderr)

	var cfg zap.Config
	if strings.EqualFold(viper.GetString(logLevelKey), logLevelProd) {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig = zap.NewProductionEncoderConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	consoleCfg := cfg
	consoleCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	fileEncoder := zapcore.NewJSONEncoder(cfg.EncoderConfig)
	consoleEncoder := zapcore.NewConsoleEncoder(consoleCfg.EncoderConfig)

	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, zapcore.AddSync(logFile), highPriority),
		zapcore.NewCore(consoleEncoder, consoleErrors, highPriority),
		zapcore.NewCore(fileEncoder, zapcore.AddSync(logFile), lowPriority),
		zapcore.NewCore(consoleEncoder, consoleDebugging, lowPriority),
	)
	return zap.New(core, zap.AddCaller())
}

func setupLoggerELK() *zap.Logger {
	encoderConfig := ecszap.EncoderConfig{
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   ecszap.FullCallerEncoder,
	}
	core := ecszap.NewCore(encoderConfig, os.Stdout, zap.DebugLevel)
	return zap.New(core, zap.AddCaller())
}
