package utils

import (
	"context"
	"time"
)

// DefaultQueryTimeout is the default timeout for database queries
const DefaultQueryTimeout = 30 * time.Second

// FastQueryTimeout is for simple queries that should be fast
const FastQueryTimeout = 10 * time.Second

// SheetFetchTimeout bounds a round trip to the spreadsheet feed, which
// is slower and flakier than local Postgres.
const SheetFetchTimeout = 45 * time.Second

// GetQueryContext returns a context with timeout for outbound calls.
// If parent context is provided, it uses that; otherwise creates a
// background context.
func GetQueryContext(parentCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return context.WithTimeout(parentCtx, timeout)
}

// GetDefaultQueryContext returns a context with default timeout
func GetDefaultQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, DefaultQueryTimeout)
}

// GetFastQueryContext returns a context with fast query timeout
func GetFastQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, FastQueryTimeout)
}

// GetSheetFetchContext returns a context sized for spreadsheet reads.
func GetSheetFetchContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, SheetFetchTimeout)
}
