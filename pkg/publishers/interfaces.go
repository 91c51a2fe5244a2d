package publishers

import (
	"context"

	"github.com/samvad-hq/samvad-asset-loader/internal/logger"
)

// Publisher sends load events to a downstream sink (SQS, SNS, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Logger is the logging surface publishers rely on.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger { return logger.Ensure(log) }
