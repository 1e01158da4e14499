package engine

// RunOption configures a parse run.
type RunOption func(*runConfig)

type runConfig struct {
	tracer   Tracer
	maxSteps int
}

func newRunConfig(opts []RunOption) runConfig {
	cfg := runConfig{tracer: nopTracer{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTracer attaches a tracer to the run. A nil tracer is ignored.
func WithTracer(t Tracer) RunOption {
	return func(c *runConfig) {
		if t != nil {
			c.tracer = t
		}
	}
}

// Run parses input with p using a fresh State.
//
// On success it returns the value and the cursor over the unconsumed input;
// grammars usually end with EOF so the cursor is empty. Any *Failure, of
// either severity, is reported as a *NoMatchError. Other errors returned by
// user parsers are passed through unchanged. On error the returned cursor is
// where the parse stopped.
func Run[T, V any](p Parser[T, V], input []T, opts ...RunOption) (V, Cursor[T], error) {
	s := NewState(input, opts...)
	v, err := p(s)
	if err != nil {
		var zero V
		if f, ok := AsFailure(err); ok {
			return zero, s.cursor, &NoMatchError{Offset: f.Offset, Description: f.Description}
		}
		return zero, s.cursor, err
	}
	return v, s.cursor, nil
}
