package storage

import (
	"bytes"
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Entry is one stored JSON value.
// Entries are immutable once created; callers must not modify the
// underlying proto returned by Proto.
type Entry struct {
	value *structpb.Value
}

// NewEntry converts a decoded JSON tree (maps, slices, float64, string,
// bool, nil) into an Entry.
func NewEntry(v any) (Entry, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return Entry{}, err
	}
	return Entry{value: pv}, nil
}

// EntryFromProto wraps an existing structpb.Value.
// The value is cloned so later changes by the caller are not visible.
func EntryFromProto(v *structpb.Value) Entry {
	if v == nil {
		return Entry{value: structpb.NewNullValue()}
	}
	return Entry{value: proto.Clone(v).(*structpb.Value)}
}

// Proto returns the underlying value. It must be treated as read-only.
func (e Entry) Proto() *structpb.Value {
	if e.value == nil {
		return structpb.NewNullValue()
	}
	return e.value
}

// Interface returns the entry as a plain Go value.
func (e Entry) Interface() any {
	return e.Proto().AsInterface()
}

// Equal reports whether two entries are structurally equal.
func (e Entry) Equal(other Entry) bool {
	return proto.Equal(e.Proto(), other.Proto())
}

// MarshalJSON implements json.Marshaler. The output is compact, so the
// same entry always encodes to the same bytes.
func (e Entry) MarshalJSON() ([]byte, error) {
	b, err := protojson.Marshal(e.Proto())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String returns the compact JSON form of the entry.
func (e Entry) String() string {
	b, err := e.MarshalJSON()
	if err != nil {
		return "<invalid entry>"
	}
	return string(b)
}

// Window describes a read request against a Store.
// Zero value means "all entries, oldest first, no flush".
type Window struct {
	// Count is the maximum number of entries to return.
	// nil means all entries.
	Count *int

	// FromLatest selects the last Count entries instead of the first.
	FromLatest bool

	// FlushAfter clears the whole store once the window has been read.
	FlushAfter bool
}

// All returns a window covering every entry.
func All() Window {
	return Window{}
}

// First returns a window over the n oldest entries.
func First(n int) Window {
	return Window{Count: &n}
}

// Last returns a window over the n newest entries.
func Last(n int) Window {
	return Window{Count: &n, FromLatest: true}
}

// WithFlush returns a copy of w that clears the store after reading.
func (w Window) WithFlush() Window {
	w.FlushAfter = true
	return w
}

// Bounds returns the half-open index range [start, end) the window selects
// from a sequence of length n. ok is false when the window selects nothing.
func (w Window) Bounds(n int) (start, end int, ok bool) {
	if n == 0 {
		return 0, 0, false
	}
	if w.Count == nil {
		return 0, n, true
	}

	c := *w.Count
	if c <= 0 {
		return 0, 0, false
	}
	if c > n {
		c = n
	}

	if w.FromLatest {
		return n - c, n, true
	}
	return 0, c, true
}

// Stats contains store statistics.
type Stats struct {
	// Entries is the number of entries currently held.
	Entries int

	// TotalAppended counts entries accepted since startup.
	TotalAppended int64

	// TotalRejected counts lines that failed to parse.
	TotalRejected int64

	// TotalFlushed counts entries removed by flushing queries.
	TotalFlushed int64
}
