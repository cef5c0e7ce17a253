package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"time"
)

const timeFormat = time.RFC3339

type jsonMessage struct {
	Timestamp string `json:"executed_at"`
	Level     string `json:"severity"`
	Message   string `json:"message"`
}

// JSONWriter writes every log line as one JSON object.
// Pass it to New/SetupGlobalLoger; the logger wraps it per level.
type JSONWriter struct {
	wr    io.Writer
	level string
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{wr: w}
}

func (l *JSONWriter) Write(b []byte) (n int, err error) {
	msg := jsonMessage{
		Timestamp: time.Now().Format(timeFormat),
		Level:     l.level,
		Message:   string(bytes.TrimRight(b, "\n")),
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}

	_, err = l.wr.Write(append(raw, '\n'))
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
