package dcontext

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type instanceIDKey struct{}

func (instanceIDKey) String() string { return "instance.id" }

var (
	instanceID     string
	instanceIDOnce sync.Once
)

// Background returns a non-nil, empty context carrying the id of this
// process. Loggers taken from it include the id.
func Background() context.Context {
	instanceIDOnce.Do(func() {
		instanceID = uuid.NewString()
	})
	return context.WithValue(context.Background(), instanceIDKey{}, instanceID)
}

type valuesContext struct {
	context.Context
	values map[string]any
}

// WithValues returns a context that resolves the keys of m to their values
// before falling back to ctx. It is used for static log fields.
func WithValues(ctx context.Context, m map[string]any) context.Context {
	mo := make(map[string]any, len(m))
	for k, v := range m {
		mo[k] = v
	}
	return valuesContext{Context: ctx, values: mo}
}

func (ctx valuesContext) Value(key any) any {
	if ks, ok := key.(string); ok {
		if v, ok := ctx.values[ks]; ok {
			return v
		}
	}
	return ctx.Context.Value(key)
}

// GetStringValue returns the value of key in ctx as a string, or "" if it is
// missing or not a string.
func GetStringValue(ctx context.Context, key any) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

type versionKey struct{}

func (versionKey) String() string { return "version" }

// WithVersion stores the application version in the context. Loggers taken
// from the result log it under "version".
func WithVersion(ctx context.Context, version string) context.Context {
	ctx = context.WithValue(ctx, versionKey{}, version)
	return WithLogger(ctx, GetLogger(ctx, versionKey{}))
}

// GetVersion returns the version set with WithVersion.
func GetVersion(ctx context.Context) string {
	return GetStringValue(ctx, versionKey{})
}
