package logging

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xirelogy/go-hd/internal/config"
)

// New builds a development or production logger at the configured level.
func New(cfg config.Log) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// Install builds a logger and replaces the zap globals with it.
// The returned func restores the previous globals and flushes the logger.
func Install(cfg config.Log) (*zap.Logger, func(), error) {
	l, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	undo := zap.ReplaceGlobals(l)
	return l, func() {
		_ = l.Sync()
		undo()
	}, nil
}
