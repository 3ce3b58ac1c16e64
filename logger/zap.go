package logger

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a *zap.SugaredLogger to the Logger seam.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (z *zapLogger) Println(msg string) {
	z.sugar.Info(msg)
}

// NewZap builds a Logger backed by zap, configured from the
// log.level/log.log_format/log.date_format/log.time_format keys (see
// config.Logging). An unrecognised level falls back to info; an
// unrecognised format falls back to the console encoder.
func NewZap(level, format, dateFormat, timeFormat string) (Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = layoutTimeEncoder(dateFormat, timeFormat)
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), zapLevel)
	log := zap.New(core)
	return &zapLogger{sugar: log.Sugar()}, nil
}

func layoutTimeEncoder(dateFormat, timeFormat string) zapcore.TimeEncoder {
	layout := dateFormat + " " + timeFormat
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(layout))
	}
}
