package logger

import (
	"io"
	"log"
	"strings"
)

const (
	DebugLevel = iota
	InfoLevel
	WarningLevel
	ErrorLevel
	logLevelsCount // actually not a real log level, but simplifies some code
)

type Logger struct {
	level   int
	loggers [logLevelsCount]*log.Logger
}

func logLevelString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	default:
		return "?????"
	}
}

func logLevelPrefix(level int) string {
	switch level {
	case DebugLevel:
		return "[DBG] "
	case InfoLevel:
		return "[INF] "
	case WarningLevel:
		return "[WRN] "
	case ErrorLevel:
		return "[ERR] "
	default:
		return "[???] "
	}
}

// ParseLevel converts a level name to its value. Unknown names fall back to def.
func ParseLevel(name string, def int) int {
	switch strings.ToUpper(name) {
	case "DEBUG", "DBG":
		return DebugLevel
	case "INFO", "INF":
		return InfoLevel
	case "WARNING", "WARN", "WRN":
		return WarningLevel
	case "ERROR", "ERR":
		return ErrorLevel
	default:
		return def
	}
}

func New(level int, writers ...io.Writer) *Logger {
	var jsonOut io.Writer
	w := []io.Writer{}
	for _, onewriter := range writers {
		// JSON writer is a special case, because the writer itself must know its log level.
		// So sort it out from generic writers (only one instance is expected).
		switch typewr := onewriter.(type) {
		case *JSONWriter:
			jsonOut = typewr.wr
		default:
			w = append(w, typewr)
		}
	}

	nullWriter := &nullWritter{}
	lgr := Logger{level: level}

	makeWriters := func(wrs ...io.Writer) io.Writer {
		var writers io.Writer

		switch {
		case wrs == nil:
			writers = nullWriter
		case len(wrs) == 0:
			writers = nullWriter
		case len(wrs) == 1:
			writers = wrs[0]
		default:
			writers = io.MultiWriter(wrs...)
		}
		return writers
	}

	for i := 0; i < logLevelsCount; i++ {
		if i >= level {
			if jsonOut != nil {
				lgr.loggers[i] = log.New(makeWriters(append(w,
					&JSONWriter{wr: jsonOut, level: logLevelString(i)})...),
					logLevelPrefix(i), log.Ldate|log.Ltime)
			} else {
				lgr.loggers[i] = log.New(makeWriters(w...), logLevelPrefix(i), log.Ldate|log.Ltime)
			}
		} else {
			lgr.loggers[i] = log.New(nullWriter, "", log.Ldate|log.Ltime)
		}
	}
	return &lgr
}

// Enabled reports whether messages of the given level are written anywhere.
func (lgr *Logger) Enabled(level int) bool {
	return level >= lgr.level
}

func (lgr *Logger) Debug() *log.Logger {
	return lgr.loggers[DebugLevel]
}

func (lgr *Logger) Info() *log.Logger {
	return lgr.loggers[InfoLevel]
}

func (lgr *Logger) Warning() *log.Logger {
	return lgr.loggers[WarningLevel]
}

func (lgr *Logger) Error() *log.Logger {
	return lgr.loggers[ErrorLevel]
}
