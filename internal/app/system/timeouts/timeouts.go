// Package timeouts provides the timeout values used for remote spreadsheet
// calls and store operations.
//
// Timeouts are carried as a value built from configuration at startup and
// passed to the components that need them; there is no package-level state.
//
// Guidelines for choosing a timeout:
//   - Short: opening a document, listing permissions, single-cell writes
//   - Medium: reading or writing a whole worksheet, sharing changes
//   - Long: creating a document, read-modify-write updates
//   - Store: loading or saving the sheet key mapping
package timeouts

import (
	"context"
	"time"
)

// Default timeout values.
const (
	DefaultShort  = 10 * time.Second
	DefaultMedium = 30 * time.Second
	DefaultLong   = 60 * time.Second
	DefaultStore  = 10 * time.Second
)

// Timeouts holds per-class timeout values. Zero fields fall back to the
// defaults; a negative field disables the timeout for that class.
type Timeouts struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Store  time.Duration
}

// Defaults returns the default timeouts.
func Defaults() Timeouts {
	return Timeouts{Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong, Store: DefaultStore}
}

// Scaled returns t with every class derived from one base value: Short is
// base/3, Medium is base, Long is 2*base. Store is left unchanged. A base of
// zero returns t unchanged.
func (t Timeouts) Scaled(base time.Duration) Timeouts {
	if base <= 0 {
		return t
	}
	t.Short = base / 3
	t.Medium = base
	t.Long = 2 * base
	return t
}

func pick(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}

// ShortCtx derives a context for a short remote call.
func (t Timeouts) ShortCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return with(ctx, pick(t.Short, DefaultShort))
}

// MediumCtx derives a context for a medium remote call.
func (t Timeouts) MediumCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return with(ctx, pick(t.Medium, DefaultMedium))
}

// LongCtx derives a context for a long remote call.
func (t Timeouts) LongCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return with(ctx, pick(t.Long, DefaultLong))
}

// StoreCtx derives a context for a key store operation.
func (t Timeouts) StoreCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return with(ctx, pick(t.Store, DefaultStore))
}

func with(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d < 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
