// Package faults carries the failure taxonomy used for retry decisions.
// Errors are tagged with a kind at their origin so callers classify with
// errors.As instead of matching message text.
package faults

import "errors"

type Kind int

const (
	// Other is any failure with no special retry handling
	Other Kind = iota
	// Narration marks a narration-synthesis failure; the orchestrator retries
	// it by selecting a different story
	Narration
	// Quota marks credit/rate exhaustion on an external service; never
	// retried within a cycle
	Quota
	// NoStory marks a content-acquisition failure (no eligible post found)
	NoStory
)

func (k Kind) String() string {
	switch k {
	case Narration:
		return "narration"
	case Quota:
		return "quota"
	case NoStory:
		return "no-story"
	default:
		return "other"
	}
}

// Error wraps an underlying error with a failure kind
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Tag wraps err with the given kind. Tagging nil returns nil.
func Tag(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost tagged error in err's chain,
// or Other when nothing in the chain is tagged.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Other
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
