package srwatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hazyhaar/srkit/dbopen"
	"github.com/hazyhaar/srkit/srwatch/internal/sink"
	"github.com/hazyhaar/srkit/srwatch/segment"
)

// Sink is the output interface for enriched records and resources.
type Sink = sink.Sink

// NewStdoutSink creates a stdout JSON-lines sink. A nil w writes to os.Stdout.
func NewStdoutSink(w io.Writer) Sink {
	if w == nil {
		w = os.Stdout
	}
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, retries int, logger *slog.Logger) Sink {
	opts := []sink.WebhookOption{sink.WithWebhookLogger(logger)}
	if retries > 0 {
		opts = append(opts, sink.WithWebhookRetries(retries))
	}
	return sink.NewWebhook(url, opts...)
}

// NewSQLiteSink opens a SQLite store sink at path.
func NewSQLiteSink(path string, opts ...dbopen.Option) (Sink, error) {
	return sink.OpenStore(path, opts...)
}

// NewCallbackSink creates an in-process callback sink. Either handler may be nil.
func NewCallbackSink(
	onRecord func(ctx context.Context, rec segment.EnrichedRecord) error,
	onResource func(ctx context.Context, res segment.EnrichedResource) error,
) Sink {
	return sink.NewCallback(onRecord, onResource)
}

// BuildSinks creates the sinks listed in cfg. Sinks already opened are
// closed when a later one fails.
func BuildSinks(cfg *Config, logger *slog.Logger) ([]Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var sinks []Sink
	fail := func(err error) ([]Sink, error) {
		for _, s := range sinks {
			s.Close()
		}
		return nil, err
	}
	for i, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, NewStdoutSink(nil))
		case "webhook":
			sinks = append(sinks, NewWebhookSink(sc.URL, sc.Retries, logger))
		case "sqlite":
			var opts []dbopen.Option
			if sc.BusyTimeoutMs > 0 {
				opts = append(opts, dbopen.WithBusyTimeout(sc.BusyTimeoutMs))
			}
			if sc.Synchronous != "" {
				opts = append(opts, dbopen.WithSynchronous(strings.ToUpper(sc.Synchronous)))
			}
			s, err := NewSQLiteSink(sc.Path, opts...)
			if err != nil {
				return fail(fmt.Errorf("srwatch: sink[%d]: %w", i, err))
			}
			sinks = append(sinks, s)
		default:
			return fail(fmt.Errorf("%w: %q", ErrUnknownSinkType, sc.Type))
		}
	}
	return sinks, nil
}
