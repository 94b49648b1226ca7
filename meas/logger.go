package meas

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerMu sync.RWMutex
	logger   = zerolog.Nop()
)

// SetLogger replaces the package logger. Nothing is logged by default.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

func componentLogger(component string) zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger.With().Str("component", component).Logger()
}
