// Package errors provides cleanup helpers that log instead of dropping errors.
package errors

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// DeferClose closes closer and logs a failure at warn level with msg.
// Use it in defer statements for result sets and connection pools.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}

// CloseInto closes closer and stores its error in *errp when *errp is nil, so
// a failed close of a fully read result set is not lost.
func CloseInto(errp *error, closer io.Closer, what string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil && *errp == nil {
		*errp = fmt.Errorf("failed to close %s: %w", what, err)
	}
}
