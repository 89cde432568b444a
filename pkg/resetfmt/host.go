package resetfmt

import (
	"context"
	"errors"
	"sync"
)

// Host is a live document that can be edited through ranges. Range
// operations are queued; nothing touches the document until Sync runs them
// in order.
type Host interface {
	// Selection returns the current user selection.
	Selection() Range
	// Sync executes every queued operation and resolves pending values.
	Sync(ctx context.Context) error
}

// Range is a contiguous region of a host document.
type Range interface {
	Paragraphs() ParagraphCollection
	// ExpandTo returns the smallest range covering both r and other.
	ExpandTo(other Range) Range
	// OOXML queues a fetch of the range as a Flat OPC package.
	OOXML() *Pending[string]
	// InsertOOXML queues an insertion of a Flat OPC package.
	InsertOOXML(ooxml string, loc InsertLocation) Range
}

// ParagraphCollection lists the paragraphs a range touches, in document
// order.
type ParagraphCollection interface {
	First() Paragraph
	Last() Paragraph
}

// Paragraph is a paragraph in a host document.
type Paragraph interface {
	Range(loc RangeLocation) Range
}

// RangeLocation selects which part of a paragraph a range covers.
type RangeLocation int

const (
	// RangeWhole covers the paragraph including its paragraph mark.
	RangeWhole RangeLocation = iota
	// RangeContent covers the paragraph text without the mark.
	RangeContent
)

func (l RangeLocation) String() string {
	switch l {
	case RangeWhole:
		return "Whole"
	case RangeContent:
		return "Content"
	default:
		return "Unknown"
	}
}

// InsertLocation selects where InsertOOXML places its content.
type InsertLocation int

const (
	// InsertReplace replaces the content of the range.
	InsertReplace InsertLocation = iota
	// InsertEnd appends after the range.
	InsertEnd
)

func (l InsertLocation) String() string {
	switch l {
	case InsertReplace:
		return "Replace"
	case InsertEnd:
		return "End"
	default:
		return "Unknown"
	}
}

// ErrNotSynced is returned by Pending.Value before the host has synced.
var ErrNotSynced = errors.New("value not available until the host is synced")

// Pending is a value that a host resolves during Sync.
type Pending[T any] struct {
	mu    sync.Mutex
	value T
	err   error
	done  bool
}

// NewPending returns an unresolved value.
func NewPending[T any]() *Pending[T] {
	return &Pending[T]{}
}

// Resolve sets the value. Only the first Resolve or Fail takes effect.
func (p *Pending[T]) Resolve(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.value, p.done = v, true
}

// Fail marks the value as failed with err.
func (p *Pending[T]) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.err, p.done = err, true
}

// Done reports whether the value has been resolved or failed.
func (p *Pending[T]) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Value returns the resolved value, the failure, or ErrNotSynced.
func (p *Pending[T]) Value() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		var zero T
		return zero, ErrNotSynced
	}
	return p.value, p.err
}
