package progress

import (
	"context"
	"log/slog"
)

// LogTransport writes events to structured logs. It is the default
// consumer for CLI runs, where no external subscriber exists.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(jobID string, ev Event) error {
	attrs := []any{
		slog.String("job_id", jobID),
		slog.String("event", ev.Kind),
	}
	for k, v := range ev.Data {
		attrs = append(attrs, slog.Any(k, v))
	}
	t.logger.Log(context.Background(), levelFor(ev.Kind), ev.Message, attrs...)
	return nil
}

func levelFor(kind string) slog.Level {
	switch kind {
	case KindWarning:
		return slog.LevelWarn
	case KindError:
		return slog.LevelError
	case KindDetail, KindNetwork:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
