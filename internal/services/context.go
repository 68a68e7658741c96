package services

import "context"

// ctxKey namespaces the request-scoped identifiers carried through a job.
type ctxKey int

const (
	jobIDKey ctxKey = iota
	stageKey
	requestIDKey
)

func withValue(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func value(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithJobID tags ctx with the job identifier; an empty id leaves ctx unchanged.
func WithJobID(ctx context.Context, id string) context.Context { return withValue(ctx, jobIDKey, id) }

// JobIDFromContext returns the job identifier carried by ctx.
func JobIDFromContext(ctx context.Context) (string, bool) { return value(ctx, jobIDKey) }

// WithStage tags ctx with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return value(ctx, stageKey) }

// WithRequestID tags ctx with the HTTP request correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return value(ctx, requestIDKey) }
