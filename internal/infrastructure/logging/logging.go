package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/asakaida/monban/internal/infrastructure/config"
	"github.com/rs/zerolog"
)

// New builds the root logger. Format "console" writes human readable lines,
// anything else writes JSON. A nil w writes to stderr.
func New(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
