package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zap with the event helpers the quoting agent uses.
type Logger struct {
	*zap.Logger
	config Config
}

// Config is the yaml-loadable logger configuration. File outputs rotate
// via lumberjack.
type Config struct {
	Level      string   `yaml:"level"`   // debug, info, warn, error
	Outputs    []string `yaml:"outputs"` // stdout, file
	OutputFile string   `yaml:"outputFile"`
	Format     string   `yaml:"format"`     // json or console
	MaxSizeMB  int      `yaml:"maxSizeMB"`  // rotate after this size
	MaxBackups int      `yaml:"maxBackups"` // rotated files kept
	MaxAgeDays int      `yaml:"maxAgeDays"`
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Outputs:    []string{"stdout"},
		Format:     "json",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if contains(cfg.Outputs, "stdout") {
		var encoder zapcore.Encoder
		if cfg.Format == "console" {
			encoder = zapcore.NewConsoleEncoder(encoderConfig)
		} else {
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}
	if contains(cfg.Outputs, "file") && cfg.OutputFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.OutputFile,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		encoder := zapcore.NewJSONEncoder(encoderConfig)
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotating), level))
	}
	if len(cores) == 0 {
		return nil, fmt.Errorf("no log outputs configured")
	}

	core := zapcore.NewTee(cores...)
	zl := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{Logger: zl, config: cfg}, nil
}

// NewNop returns a logger that discards everything, for tests and tools.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), config: DefaultConfig()}
}

// LogQuote records an emitted quote pair.
func (l *Logger) LogQuote(symbol string, bid, ask, spread float64) {
	l.Info("quote_pair",
		zap.String("symbol", symbol),
		zap.Float64("bid", bid),
		zap.Float64("ask", ask),
		zap.Float64("spread", spread),
	)
}

// LogFill records a processed fill.
func (l *Logger) LogFill(symbol, side string, price, quantity, position float64) {
	l.Info("fill",
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Float64("price", price),
		zap.Float64("quantity", quantity),
		zap.Float64("position", position),
	)
}

// LogRisk records a risk-control event at warn level.
func (l *Logger) LogRisk(event string, fields ...zap.Field) {
	l.Warn("risk_event", append([]zap.Field{zap.String("event", event)}, fields...)...)
}

// Close flushes buffered entries.
func (l *Logger) Close() error {
	return l.Sync()
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
