package classify

import (
	"bytes"

	"github.com/memscope/internal/memory"
)

// terminatorChunk bounds each read while checking string contents.
const terminatorChunk = 4096

// StringInfo describes a detected string object.
type StringInfo struct {
	Length   uint64
	Capacity uint64
	Data     memory.Address
	Inline   bool
	// Preview holds up to Layout.PreviewLength raw leading bytes.
	Preview []byte
}

// StringHeuristic recognizes string objects without type information.
type StringHeuristic struct {
	reader *memory.Reader
	layout Layout
}

// NewStringHeuristic creates a StringHeuristic.
func NewStringHeuristic(reader *memory.Reader, layout Layout) *StringHeuristic {
	return &StringHeuristic{reader: reader, layout: layout}
}

// Detect checks whether candidate holds a string object. All of these must
// hold:
//
//   - length <= capacity
//   - InlineCapacity <= capacity <= MaxCapacity
//   - the character data (inline at candidate when capacity equals
//     InlineCapacity, otherwise behind the pointer at candidate) is
//     readable for capacity bytes
//   - the first zero byte of the data is at index length
func (h *StringHeuristic) Detect(candidate memory.Address) (StringInfo, bool) {
	var info StringInfo

	length, ok := h.reader.ReadWord(candidate.Add(h.layout.StringSizeOffset))
	if !ok {
		return info, false
	}
	capacity, ok := h.reader.ReadWord(candidate.Add(h.layout.StringCapacityOffset))
	if !ok {
		return info, false
	}
	if length > capacity || capacity < h.layout.InlineCapacity || capacity > h.layout.MaxCapacity {
		return info, false
	}
	info.Length, info.Capacity = length, capacity

	data := candidate
	if capacity == h.layout.InlineCapacity {
		info.Inline = true
	} else {
		data, ok = h.reader.ReadPointer(candidate)
		if !ok {
			return info, false
		}
	}
	if data.IsNull() || !h.reader.IsReadable(data, capacity) {
		return info, false
	}
	info.Data = data

	preview, ok := h.terminatedAt(data, length)
	if !ok {
		return info, false
	}
	info.Preview = preview
	return info, true
}

// terminatedAt reports whether the first zero byte at data is at index
// length, and returns the preview bytes. The data is read in chunks so a
// large string is never copied whole.
func (h *StringHeuristic) terminatedAt(data memory.Address, length uint64) ([]byte, bool) {
	var preview []byte
	want := uint64(h.layout.PreviewLength)
	if want > length {
		want = length
	}

	total := length + 1
	for off := uint64(0); off < total; {
		n := total - off
		if n > terminatorChunk {
			n = terminatorChunk
		}
		chunk, ok := h.reader.ReadBytes(data.Add(off), n)
		if !ok {
			return nil, false
		}

		if missing := want - uint64(len(preview)); missing > 0 {
			if missing > n {
				missing = n
			}
			preview = append(preview, chunk[:missing]...)
		}

		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			// Only the last chunk reaches index length.
			return preview, off+uint64(i) == length
		}
		off += n
	}
	return nil, false
}
