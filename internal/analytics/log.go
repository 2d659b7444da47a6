package analytics

import (
	"context"

	"github.com/rs/zerolog"
)

type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(_ context.Context, e Event) error {
	s.log.Info().
		Str("event", e.Name).
		Str("client_id", e.ClientID).
		Str("currency", e.Currency).
		Str("value", e.Value.String()).
		Str("transaction_id", e.TransactionID).
		Int("items", len(e.Items)).
		Msg("analytics event")
	return nil
}
