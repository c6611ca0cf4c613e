package usage

import "context"

// Recorder receives one Event per model call.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// Multi fans one event out to several recorders. Nil entries are skipped.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, ev Event) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, ev)
		}
	}
}

type recorderKey struct{}

// NewContext attaches r to ctx for callers that do not hold the client.
func NewContext(ctx context.Context, r Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// FromContext returns the attached recorder, or nil.
func FromContext(ctx context.Context) Recorder {
	r, _ := ctx.Value(recorderKey{}).(Recorder)
	return r
}
