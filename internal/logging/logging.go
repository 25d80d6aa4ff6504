// Package logging installs the line logger used by every package of the
// module behind dragonboat's logger facade. Packages obtain their logger with
// logger.GetLogger(name) and the level is set per name.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

// Names of the loggers used in this module.
var Names = []string{"view", "viewstat"}

// output is shared by all loggers created by the factory.
var output = log.New(os.Stderr, "", log.Ldate|log.Ltime)

func init() {
	logger.SetLoggerFactory(CreateLogger)
}

// --------------------------------------------------------------------------
// Line logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

type lineLogger struct {
	name  string
	level logger.LogLevel
}

func (l *lineLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *lineLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *lineLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *lineLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *lineLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *lineLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (l *lineLogger) log(levelStr string, format string, args ...interface{}) {
	output.Printf("%-5s | %-10s | %s", levelStr, l.name, fmt.Sprintf(format, args...))
}

// CreateLogger is the logger.Factory installed for dragonboat's facade.
// New loggers start at WARNING so library use stays quiet.
func CreateLogger(pkgName string) logger.ILogger {
	return &lineLogger{name: pkgName, level: logger.WARNING}
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// SetOutput redirects all loggers to w.
func SetOutput(w io.Writer) {
	output.SetOutput(w)
}

// ParseLevel converts debug, info, warn(ing) or error to a logger.LogLevel.
func ParseLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// SetLevel sets the level of every logger in Names.
func SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	for _, name := range Names {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
