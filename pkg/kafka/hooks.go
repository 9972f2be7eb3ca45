package kafka

import (
    "context"
    "fmt"
    "time"

    "github.com/segmentio/kafka-go"

    "FinScore/pkg/logger"
)

// ConsumerHook wraps message handling.
// A non-nil error from BeforeHandle skips the handler; the message then goes
// through error processing (OnError, DLQ, offset commit).
type ConsumerHook interface {
    BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
    AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
    OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    return ctx, km, data, nil
}

func (NoopHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

func (NoopHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

// HookError is an error raised by a hook, classified by Code (ERR_PANIC, ERR_DECODE, ...).
type HookError struct {
    Code string
    Err  error
}

func (e *HookError) Error() string {
    if e.Err != nil {
        return fmt.Sprintf("%s: %v", e.Code, e.Err)
    }
    return e.Code
}

func (e *HookError) Unwrap() error { return e.Err }

// HookFuncs implements ConsumerHook from plain functions. Nil functions are no-ops.
type HookFuncs struct {
    Before func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
    After  func(context.Context, string, kafka.Message, []byte, error)
    Err    func(context.Context, string, kafka.Message, []byte, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    if h.Before == nil {
        return ctx, km, data, nil
    }
    return h.Before(ctx, topic, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    if h.After != nil {
        h.After(ctx, topic, km, data, err)
    }
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    if h.Err != nil {
        h.Err(ctx, topic, km, data, err)
    }
}

// HookChain runs hooks in order for BeforeHandle and in reverse for
// AfterHandle. A panicking hook is turned into an ERR_PANIC error.
type HookChain struct {
    hooks []ConsumerHook
}

// NewHookChain creates a hook chain. Nil hooks are ignored.
func NewHookChain(hooks ...ConsumerHook) *HookChain {
    filtered := make([]ConsumerHook, 0, len(hooks))
    for _, h := range hooks {
        if h != nil {
            filtered = append(filtered, h)
        }
    }
    return &HookChain{hooks: filtered}
}

func (c *HookChain) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    for _, h := range c.hooks {
        nextCtx, nextMsg, nextData, err := safeBefore(h, ctx, topic, km, data)
        if err != nil {
            c.OnError(ctx, topic, km, data, err)
            return ctx, km, data, err
        }
        ctx, km, data = nextCtx, nextMsg, nextData
    }
    return ctx, km, data, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    for i := len(c.hooks) - 1; i >= 0; i-- {
        safeAfter(c.hooks[i], ctx, topic, km, data, err)
    }
}

func (c *HookChain) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    for _, h := range c.hooks {
        safeOnError(h, ctx, topic, km, data, err)
    }
}

type ctxKey string

const (
    CtxStartTime ctxKey = "kafka_hook_start_time"
    CtxTraceID   ctxKey = "kafka_hook_trace_id"
)

// WithStartTime sets start time in the context.
func WithStartTime(ctx context.Context, t time.Time) context.Context {
    return context.WithValue(ctx, CtxStartTime, t)
}

// WithTraceID sets trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
    if traceID == "" {
        return ctx
    }
    return context.WithValue(ctx, CtxTraceID, traceID)
}

// TraceID returns the trace id stored in ctx, if any.
func TraceID(ctx context.Context) string {
    s, _ := ctx.Value(CtxTraceID).(string)
    return s
}

// ExtractTraceID reads the trace_id header.
func ExtractTraceID(msg kafka.Message) string {
    for _, h := range msg.Headers {
        if h.Key == "trace_id" && len(h.Value) > 0 {
            return string(h.Value)
        }
    }
    return ""
}

// NewTraceHook stamps the start time and header trace id into the handler context.
func NewTraceHook() ConsumerHook {
    return HookFuncs{
        Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
            ctx = WithStartTime(ctx, time.Now())
            return WithTraceID(ctx, ExtractTraceID(km)), km, data, nil
        },
    }
}

// NewLoggingHook logs handler failures and slow messages.
func NewLoggingHook(l *logger.Logger, slow time.Duration) ConsumerHook {
    return HookFuncs{
        After: func(ctx context.Context, topic string, km kafka.Message, _ []byte, err error) {
            if l == nil || err != nil {
                return
            }
            start, ok := ctx.Value(CtxStartTime).(time.Time)
            if ok && slow > 0 && time.Since(start) > slow {
                l.Warn("slow kafka message",
                    logger.String("topic", topic),
                    logger.String("key", string(km.Key)),
                    logger.Duration("elapsed", time.Since(start)),
                )
            }
        },
        Err: func(ctx context.Context, topic string, km kafka.Message, _ []byte, err error) {
            if l == nil {
                return
            }
            l.Error("kafka message failed",
                logger.String("topic", topic),
                logger.String("key", string(km.Key)),
                logger.Int("partition", km.Partition),
                logger.Int64("offset", km.Offset),
                logger.String("trace_id", TraceID(ctx)),
                logger.Error(err),
            )
        },
    }
}

func safeBefore(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte) (nctx context.Context, nkm kafka.Message, ndata []byte, err error) {
    defer func() {
        if r := recover(); r != nil {
            nctx, nkm, ndata = ctx, km, data
            err = &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("hook panic: %v", r)}
        }
    }()
    return h.BeforeHandle(ctx, topic, km, data)
}

func safeAfter(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    defer func() { _ = recover() }()
    h.AfterHandle(ctx, topic, km, data, err)
}

func safeOnError(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    defer func() { _ = recover() }()
    h.OnError(ctx, topic, km, data, err)
}
