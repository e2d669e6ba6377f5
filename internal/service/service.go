// Package service holds the registry's business rules.
//
// Services validate transfer records, run writes inside a transaction and
// return records mapped from the saved entities. Every domain failure is an
// *errs.HTTPError carrying a stable code.
package service

import (
	"context"

	"github.com/rs/zerolog"
)

// PostalWarmEnqueuer schedules a background postal cache warm-up.
type PostalWarmEnqueuer interface {
	EnqueuePostalWarm(ctx context.Context, postalCode string) error
}

// loggerFrom prefers the request logger stored in ctx.
func loggerFrom(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return fallback
}

func nopLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger != nil {
		return logger
	}
	nop := zerolog.Nop()
	return &nop
}
