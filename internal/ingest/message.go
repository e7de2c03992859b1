package ingest

// Message is what flows between stages: either a payload or a Done signal
// from one producer. Channels are never closed; consumers count Done.
type Message[T any] struct {
	Done bool
	Data T
}

// Data wraps a payload.
func Data[T any](v T) Message[T] {
	return Message[T]{Data: v}
}

// Done returns a termination signal.
func Done[T any]() Message[T] {
	return Message[T]{Done: true}
}
