package resetfmt

import "context"

// FragmentHost is a Host over a Flat OPC package that a remote editor has
// already fetched for its selection. The selection is the whole fragment
// and already covers whole paragraphs, so extending it changes nothing.
// A replacement is captured rather than applied; the editor applies it.
type FragmentHost struct {
	ooxml  string
	result string
	set    bool
	queue  []func()
}

// NewFragmentHost returns a host whose selection is the given package text.
func NewFragmentHost(ooxml string) *FragmentHost {
	return &FragmentHost{ooxml: ooxml}
}

// Selection implements Host.
func (h *FragmentHost) Selection() Range {
	return fragmentRange{host: h}
}

// Sync implements Host.
func (h *FragmentHost) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	queue := h.queue
	h.queue = nil
	for _, op := range queue {
		op()
	}
	return nil
}

// Result returns the replacement package text, if one was inserted.
func (h *FragmentHost) Result() (string, bool) {
	return h.result, h.set
}

type fragmentRange struct {
	host *FragmentHost
}

func (r fragmentRange) Paragraphs() ParagraphCollection { return r }
func (r fragmentRange) First() Paragraph                { return r }
func (r fragmentRange) Last() Paragraph                 { return r }
func (r fragmentRange) Range(RangeLocation) Range       { return r }
func (r fragmentRange) ExpandTo(Range) Range            { return r }

func (r fragmentRange) OOXML() *Pending[string] {
	p := NewPending[string]()
	r.host.queue = append(r.host.queue, func() { p.Resolve(r.host.ooxml) })
	return p
}

// InsertOOXML captures ooxml as the replacement of the fragment. Every
// location replaces: the fragment is the whole of what the editor sent.
func (r fragmentRange) InsertOOXML(ooxml string, _ InsertLocation) Range {
	r.host.queue = append(r.host.queue, func() {
		r.host.result, r.host.set = ooxml, true
	})
	return r
}
