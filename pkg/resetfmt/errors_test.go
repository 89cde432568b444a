package resetfmt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "StructuralError",
			err:     NewStructuralError(ReasonNoMainPart, 0),
			wantMsg: "structural error: no-main-part",
		},
		{
			name:    "StructuralError with count",
			err:     NewStructuralError(ReasonAmbiguousMainPart, 2),
			wantMsg: "structural error: ambiguous-main-part (2 matches)",
		},
		{
			name:    "DocumentError",
			err:     NewDocumentError("save", "output.docx", errors.New("permission denied")),
			wantMsg: "document error during save of 'output.docx': permission denied",
		},
		{
			name:    "DocumentError without path",
			err:     NewDocumentError("parse", "", errors.New("EOF")),
			wantMsg: "document error during parse: EOF",
		},
		{
			name:    "DocumentError without cause",
			err:     NewDocumentError("open", "in.docx", nil),
			wantMsg: "document error during open of 'in.docx'",
		},
		{
			name:    "HostError",
			err:     NewHostError("fetch", errors.New("connection reset")),
			wantMsg: "document host failed during fetch: connection reset",
		},
		{
			name:    "RangeError",
			err:     NewRangeError(Position{Block: 4}, 3, ""),
			wantMsg: "range error: position 4:0 outside body of 3 blocks",
		},
		{
			name:    "RangeError with message",
			err:     NewRangeError(Position{Block: 1, Offset: 9}, 3, "offset past paragraph end"),
			wantMsg: "range error at 1:9: offset past paragraph end",
		},
		{
			name:    "ConfigError",
			err:     &ConfigError{Issues: []ConfigIssue{{Field: "workers", Message: "must be positive"}}},
			wantMsg: "config error: workers - must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("in.docx: %w", NewHostError("replace", cause))

	assert.True(t, IsHostError(wrapped))
	assert.False(t, IsDocumentError(wrapped))
	assert.ErrorIs(t, wrapped, cause, "host errors pass the cause through")

	assert.True(t, IsStructuralError(fmt.Errorf("x: %w", NewStructuralError(ReasonNoDocumentRoot, 0))))
	assert.True(t, IsRangeError(NewRangeError(Position{}, 0, "")))
	assert.True(t, IsConfigError(&ConfigError{}))
	assert.False(t, IsStructuralError(nil))
}

func TestMultiError(t *testing.T) {
	m := NewMultiError()
	assert.NoError(t, m.Err())
	assert.Equal(t, "no errors", m.Error())

	first := NewDocumentError("read", "a.docx", errors.New("missing"))
	m.Add(nil)
	m.Add(first)
	assert.Equal(t, 1, m.Len())
	assert.Same(t, first, m.Err(), "a single error is returned as is")

	m.Add(NewStructuralError(ReasonNoMainPart, 0))
	require.Equal(t, 2, m.Len())
	assert.Equal(t, m, m.Err())
	assert.Equal(t, "2 errors occurred:\n"+
		"  [1] document error during read of 'a.docx': missing\n"+
		"  [2] structural error: no-main-part", m.Error())

	assert.True(t, IsDocumentError(m))
	assert.True(t, IsStructuralError(m))
	assert.False(t, IsHostError(m))

	errs := m.Errors()
	errs[0] = nil
	assert.NotNil(t, m.Errors()[0], "Errors returns a copy")
}

func TestConfigErrorMultipleIssues(t *testing.T) {
	e := &ConfigError{}
	e.add("log_level", "invalid log level: %s", "loud")
	e.add("workers", "must be positive")
	assert.Equal(t, "2 config issues:\n  log_level: invalid log level: loud\n  workers: must be positive", e.Error())
}

func TestRecoverError(t *testing.T) {
	cause := errors.New("bad")
	assert.ErrorIs(t, RecoverError(cause), cause)
	assert.EqualError(t, RecoverError("oops"), "panic recovered: oops")
	assert.EqualError(t, RecoverError(42), "panic recovered: 42")
}
