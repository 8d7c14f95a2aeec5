package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stdoutSyncer ignores Sync, which fails with "invalid argument" or
// "handle is invalid" when stdout is a terminal or a pipe.
type stdoutSyncer struct {
	out *os.File
}

func (s *stdoutSyncer) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *stdoutSyncer) Sync() error {
	return nil
}

// New builds the application logger. Production writes JSON lines to stdout,
// development uses the colored console encoder. Stacktraces are only attached
// to error level logs and above.
func New(level zapcore.Level, production bool, version string) (*zap.Logger, func() error) {
	var encoderConfig zapcore.EncoderConfig
	if production {
		encoderConfig = zap.NewProductionEncoderConfig()
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.LevelKey = "lvl"
	encoderConfig.NameKey = "name"
	encoderConfig.MessageKey = "msg"
	encoderConfig.CallerKey = "caller"
	encoderConfig.StacktraceKey = "skt"

	var encoder zapcore.Encoder
	if production {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(&stdoutSyncer{os.Stdout}), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("app.version", version))

	flusher := func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("[flush logs]: %w", err)
		}
		return nil
	}

	return logger, flusher
}
