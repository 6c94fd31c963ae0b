package textenc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCandidates is returned when a resolver is built without candidates.
var ErrNoCandidates = errors.New("no candidate encodings configured")

// Attempt records one failed candidate.
type Attempt struct {
	Encoding string
	Err      error
}

// DecodeError is returned when every candidate failed. It lists all of them.
type DecodeError struct {
	Attempts []Attempt
}

func (e *DecodeError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%v)", a.Encoding, a.Err))
	}

	return "no candidate encoding could decode the input; tried: " + strings.Join(parts, ", ")
}

// Unwrap exposes the per-candidate causes to errors.Is and errors.As.
func (e *DecodeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}

	return errs
}

// Tried returns the candidate names in the order they were attempted.
func (e *DecodeError) Tried() []string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Encoding)
	}

	return names
}

// Result is a successful decoding.
type Result struct {
	Text     string
	Encoding string
	// Failed lists candidates tried before the winner.
	Failed []Attempt
	// Detected is set when the resolver consults the detector.
	Detected *Detection
}

// Resolver tries candidates strictly in order and accepts the first that
// decodes without error. Decoded text is not validated as CSV.
type Resolver struct {
	candidates []Encoding
	detect     bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDetector consults Detect before decoding. A certain verdict moves the
// detected encoding to the front of the candidate list.
func WithDetector() Option {
	return func(r *Resolver) {
		r.detect = true
	}
}

// NewResolver builds a resolver over the named candidates. Duplicate names
// (after alias resolution) keep their first position.
func NewResolver(names []string, opts ...Option) (*Resolver, error) {
	if len(names) == 0 {
		return nil, ErrNoCandidates
	}

	resolver := &Resolver{}
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		enc, err := Lookup(name)
		if err != nil {
			return nil, err
		}

		if seen[enc.Name()] {
			continue
		}

		seen[enc.Name()] = true
		resolver.candidates = append(resolver.candidates, enc)
	}

	for _, opt := range opts {
		opt(resolver)
	}

	return resolver, nil
}

// Candidates returns the configured candidate names in order.
func (r *Resolver) Candidates() []string {
	names := make([]string, 0, len(r.candidates))
	for _, enc := range r.candidates {
		names = append(names, enc.Name())
	}

	return names
}

// Resolve decodes data with the first candidate that succeeds. contentType
// is only used by the detector and may be empty.
func (r *Resolver) Resolve(data []byte, contentType string) (Result, error) {
	candidates := r.candidates

	var detected *Detection

	if r.detect {
		d := Detect(data, contentType)
		detected = &d
		candidates = prioritize(candidates, d)
	}

	var failed []Attempt

	for _, enc := range candidates {
		text, err := enc.Decode(data)
		if err != nil {
			failed = append(failed, Attempt{Encoding: enc.Name(), Err: err})

			continue
		}

		return Result{
			Text:     text,
			Encoding: enc.Name(),
			Failed:   failed,
			Detected: detected,
		}, nil
	}

	return Result{}, &DecodeError{Attempts: failed}
}

func prioritize(candidates []Encoding, d Detection) []Encoding {
	if !d.Certain || d.Encoding == "" {
		return candidates
	}

	front, err := Lookup(d.Encoding)
	if err != nil {
		return candidates
	}

	ordered := make([]Encoding, 0, len(candidates)+1)
	ordered = append(ordered, front)

	for _, enc := range candidates {
		if enc.Name() != front.Name() {
			ordered = append(ordered, enc)
		}
	}

	return ordered
}
