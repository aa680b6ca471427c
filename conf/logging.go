package conf

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// LoggingConfig is read from INVITER_LOG_*.
type LoggingConfig struct {
	Level  string            `json:"level" default:"info"`
	Format string            `json:"format" default:"console"`
	File   string            `json:"file"`
	Fields map[string]string `json:"fields"`
}

// trim full path. output in the form directory/file.go.
func consoleFormatCaller(i interface{}) string {
	c, _ := i.(string)
	if c == "" {
		return c
	}
	parts := strings.Split(c, "/")
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

func logOutput(config *LoggingConfig) io.Writer {
	var out io.Writer = os.Stdout
	if config.File != "" {
		f, err := os.OpenFile(config.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Error().Err(err).Str("file", config.File).Msg("error opening log file. logging to stdout")
		} else {
			out = f
		}
	}
	if config.Format == "console" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, FormatCaller: consoleFormatCaller, NoColor: config.File != ""}
	}
	return out
}

// NewLogger builds the process logger for config writing to out.
func NewLogger(config *LoggingConfig, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		lvl = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	for k, v := range config.Fields {
		ctx = ctx.Str(k, v)
	}
	return ctx.CallerWithSkipFrameCount(2).Stack().Logger()
}

func ConfigureZeroLogging(config *LoggingConfig) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if _, err := zerolog.ParseLevel(config.Level); err != nil {
		log.Error().Err(err).Msg("error parsing log level. defaulting to info level")
	}
	log.Logger = NewLogger(config, logOutput(config))
}
