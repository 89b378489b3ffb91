package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies one trigger delivery across logs and spans.
type TraceData struct {
	TraceID   string
	RequestID string
	MessageID string
	Stage     string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns the non-empty trace identifiers as logger key/values.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var kv []interface{}
	for _, f := range [][2]string{{"trace_id", td.TraceID}, {"request_id", td.RequestID}, {"message_id", td.MessageID}} {
		if f[1] != "" {
			kv = append(kv, f[0], f[1])
		}
	}
	return kv
}
