package alert

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
)

// LogChannel writes alerts through the standard logger, one line each.
type LogChannel struct {
	logger *log.Logger
	name   string
}

// NewLogChannel creates a log channel. output defaults to stdout.
func NewLogChannel(name string, output *os.File) *LogChannel {
	if output == nil {
		output = os.Stdout
	}
	return &LogChannel{
		logger: log.New(output, "[ALERT] ", log.LstdFlags),
		name:   name,
	}
}

func (c *LogChannel) Send(a Alert) error {
	c.logger.Println(fmt.Sprintf("[%s] %s", a.Type, a.Message))
	return nil
}

func (c *LogChannel) Name() string { return c.name }

// ZapChannel routes alerts into the engine's structured log.
type ZapChannel struct {
	log  *zap.Logger
	name string
}

// NewZapChannel creates a zap-backed channel.
func NewZapChannel(name string, log *zap.Logger) *ZapChannel {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapChannel{log: log, name: name}
}

func (c *ZapChannel) Send(a Alert) error {
	c.log.Warn("alert",
		zap.String("type", a.Type),
		zap.String("message", a.Message),
		zap.Time("at", a.Timestamp),
	)
	return nil
}

func (c *ZapChannel) Name() string { return c.name }
