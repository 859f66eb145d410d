package rep

import (
	"fmt"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/video"
)

// RawField is a FieldRepresentation backed directly by a flat slice of
// 16-bit samples, laid out line-major with video.Parameters.SamplesPerLine
// samples per line.
type RawField struct {
	id     field.ID
	desc   video.Descriptor
	params video.Parameters
	meta   video.Metadata
	data   []uint16
}

// NewRawField builds a RawField. It returns an error if data's length is
// not a whole multiple of params.SamplesPerLine.
func NewRawField(id field.ID, desc video.Descriptor, params video.Parameters, meta video.Metadata, data []uint16) (*RawField, error) {
	if params.SamplesPerLine <= 0 {
		return nil, fmt.Errorf("rep: invalid SamplesPerLine %d", params.SamplesPerLine)
	}
	if len(data)%params.SamplesPerLine != 0 {
		return nil, fmt.Errorf("rep: sample data length %d not a multiple of SamplesPerLine %d", len(data), params.SamplesPerLine)
	}
	return &RawField{id: id, desc: desc, params: params, meta: meta, data: data}, nil
}

func (f *RawField) ID() field.ID                 { return f.id }
func (f *RawField) Descriptor() video.Descriptor { return f.desc }
func (f *RawField) Parameters() video.Parameters { return f.params }
func (f *RawField) Metadata() video.Metadata     { return f.meta }
func (f *RawField) LineCount() int               { return len(f.data) / f.params.SamplesPerLine }

// Line returns the samples for 1-based line n.
func (f *RawField) Line(n int) (Line, error) {
	if n < 1 || n > f.LineCount() {
		return nil, fmt.Errorf("rep: line %d out of range [1,%d]", n, f.LineCount())
	}
	start := (n - 1) * f.params.SamplesPerLine
	end := start + f.params.SamplesPerLine
	return Line(f.data[start:end]), nil
}

// FieldRange returns the single-field range [id, id+1).
func (f *RawField) FieldRange() field.Range { return field.NewRange(f.id, f.id.Add(1)) }

// FieldCount always returns 1 for a RawField.
func (f *RawField) FieldCount() int { return int(f.FieldRange().Len()) }

// HasField reports whether id is this RawField's own id.
func (f *RawField) HasField(id field.ID) bool { return id == f.id }

// lineBound returns the highest addressable (1-based, inclusive) line
// number: the declared Descriptor().Height if set, else LineCount().
func (f *RawField) lineBound() int {
	if f.desc.Height > 0 {
		return f.desc.Height
	}
	return f.LineCount()
}

// GetLine returns line n of field id, bounded by Descriptor().Height
// rather than by how much sample data happens to be stored.
func (f *RawField) GetLine(id field.ID, n int) (Line, error) {
	if id != f.id {
		return nil, fmt.Errorf("rep: field %s not present (have %s)", id, f.id)
	}
	bound := f.lineBound()
	if n < 1 || n > bound {
		return nil, fmt.Errorf("rep: line %d out of range [1,%d]", n, bound)
	}
	if n > f.LineCount() {
		return make(Line, f.params.SamplesPerLine), nil
	}
	return f.Line(n)
}

// GetField returns every line of field id, truncated to
// Descriptor().Height lines.
func (f *RawField) GetField(id field.ID) ([]Line, error) {
	if id != f.id {
		return nil, fmt.Errorf("rep: field %s not present (have %s)", id, f.id)
	}
	bound := f.lineBound()
	lines := make([]Line, bound)
	for n := 1; n <= bound; n++ {
		l, err := f.GetLine(id, n)
		if err != nil {
			return nil, err
		}
		lines[n-1] = l
	}
	return lines, nil
}
