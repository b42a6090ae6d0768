package application

import (
	"os"

	"github.com/luxfi/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/luxfi/paractl/pkg/core"
)

// NewLogger builds a console logger on stderr that drops entries below level
// (debug, info, warn or error).
func NewLogger(name, level string) (log.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, core.ErrInvalidConfigf("invalid log level %q", level)
	}
	atomicLevel := zap.NewAtomicLevelAt(lvl)
	writer := zapcore.Lock(os.Stderr)
	return log.NewLogger(name, log.WrappedCore{
		Core:        zapcore.NewCore(log.Plain.ConsoleEncoder(), writer, atomicLevel),
		AtomicLevel: atomicLevel,
		Writer:      writer,
	}), nil
}
