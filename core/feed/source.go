package feed

import "context"

// Source produces the next value on demand.
// Implementations return ErrFatal (see Fatal) when no further fetch can succeed.
type Source interface {
	Fetch(ctx context.Context) (Value, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Value, error)

func (f SourceFunc) Fetch(ctx context.Context) (Value, error) {
	return f(ctx)
}

// Named is implemented by sources that report a name for logs and errors.
type Named interface {
	Name() string
}

func sourceName(s Source) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return "source"
}
