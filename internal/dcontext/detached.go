package dcontext

import "context"

// DetachedContext returns a context carrying the values of ctx, such as its
// logger, that is never canceled. Background work started on behalf of a
// caller, like value log collection, runs on it.
func DetachedContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
