package alert

import (
	"fmt"

	"go.uber.org/zap"

	"mm-agent-go/infrastructure/logger"
)

// LogChannel writes alerts through the agent's structured logger, so they
// land in the same stream (and rotation) as everything else.
type LogChannel struct {
	log  *logger.Logger
	name string
}

func NewLogChannel(name string, log *logger.Logger) *LogChannel {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogChannel{log: log, name: name}
}

func (c *LogChannel) Send(a Alert) error {
	fields := make([]zap.Field, 0, len(a.Fields)+2)
	fields = append(fields, zap.String("level", string(a.Level)), zap.Time("at", a.Timestamp))
	for k, v := range a.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	switch a.Level {
	case LevelCritical:
		c.log.Error("alert: "+a.Message, fields...)
	case LevelWarning:
		c.log.Warn("alert: "+a.Message, fields...)
	default:
		c.log.Info("alert: "+a.Message, fields...)
	}
	return nil
}

func (c *LogChannel) Name() string { return c.name }

// MockChannel records alerts for tests.
type MockChannel struct {
	name      string
	alerts    []Alert
	shouldErr bool
}

func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

func (c *MockChannel) Send(a Alert) error {
	if c.shouldErr {
		return fmt.Errorf("mock channel down")
	}
	c.alerts = append(c.alerts, a)
	return nil
}

func (c *MockChannel) Name() string { return c.name }

func (c *MockChannel) Alerts() []Alert { return c.alerts }

func (c *MockChannel) Count() int { return len(c.alerts) }

func (c *MockChannel) SetShouldError(v bool) { c.shouldErr = v }
