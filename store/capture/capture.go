/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package capture is cmd/orc's own minimal file-backed
// store.SampleReader/store.MetadataReader: a binary file of
// little-endian uint16 samples laid out field_count x field_height x
// field_width, plus a JSON sidecar describing video parameters and
// per-field metadata. The store package itself only defines the
// contracts; this is the concrete reader a runnable binary needs,
// not a production ingestion pipeline.
package capture

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

// sidecar is the on-disk JSON shape describing a capture's parameters
// and per-field metadata, keyed by field index.
type sidecar struct {
	System           string        `json:"system"`
	SampleRate       float64       `json:"sample_rate"`
	SamplesPerLine   int           `json:"samples_per_line"`
	FieldHeight      int           `json:"field_height"`
	ActiveVideoStart int           `json:"active_video_start"`
	ActiveVideoEnd   int           `json:"active_video_end"`
	ColourBurstStart int           `json:"colour_burst_start"`
	ColourBurstEnd   int           `json:"colour_burst_end"`
	White16bIRE      uint16        `json:"white_16b_ire"`
	Black16bIRE      uint16        `json:"black_16b_ire"`
	FirstActiveLine  int           `json:"first_active_line"`
	LastActiveLine   int           `json:"last_active_line"`
	Fields           []fieldRecord `json:"fields"`
}

type fieldRecord struct {
	IsFirstField bool                `json:"is_first_field"`
	LineOffset   int                 `json:"line_offset"`
	DiscSide     string              `json:"disc_side"`
	IsCLV        bool                `json:"is_clv"`
	SourceHint   string              `json:"source_hint"`
	Dropouts     []video.SampleRange `json:"dropouts"`
	SyncHint     []int               `json:"sync_hint"`
}

// Reader is a random-access, file-backed capture: raw samples read
// directly from disk per field, metadata held in memory from the
// sidecar.
type Reader struct {
	f           *os.File
	params      video.Parameters
	fieldHeight int
	fieldWidth  int
	fieldBytes  int64
	fields      []fieldRecord
}

// Open opens the raw sample file at path and its sidecar, path+".json".
// The fields exposed are the ones the sidecar lists; the raw file's size
// divided by the per-field byte span must cover at least that many, and
// any further fields in the file are not exposed.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: opening %s: %w", path, err)
	}

	sideData, err := os.ReadFile(path + ".json")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("capture: opening sidecar for %s: %w", path, err)
	}
	var sc sidecar
	if err := json.Unmarshal(sideData, &sc); err != nil {
		f.Close()
		return nil, fmt.Errorf("capture: parsing sidecar for %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("capture: stat %s: %w", path, err)
	}

	fieldBytes := int64(sc.FieldHeight) * int64(sc.SamplesPerLine) * 2
	if fieldBytes <= 0 {
		f.Close()
		return nil, fmt.Errorf("capture: %s: sidecar declares zero-size field", path)
	}
	fieldCount := info.Size() / fieldBytes
	if fieldCount < int64(len(sc.Fields)) {
		f.Close()
		return nil, fmt.Errorf("capture: %s: file holds %d fields but sidecar lists %d", path, fieldCount, len(sc.Fields))
	}

	return &Reader{
		f: f,
		params: video.Parameters{
			System:           systemFromString(sc.System),
			SampleRate:       sc.SampleRate,
			SamplesPerLine:   sc.SamplesPerLine,
			ActiveVideoStart: sc.ActiveVideoStart,
			ActiveVideoEnd:   sc.ActiveVideoEnd,
			ColourBurstStart: sc.ColourBurstStart,
			ColourBurstEnd:   sc.ColourBurstEnd,
			White16bIRE:      sc.White16bIRE,
			Black16bIRE:      sc.Black16bIRE,
			FirstActiveLine:  sc.FirstActiveLine,
			LastActiveLine:   sc.LastActiveLine,
		},
		fieldHeight: sc.FieldHeight,
		fieldWidth:  sc.SamplesPerLine,
		fieldBytes:  fieldBytes,
		fields:      sc.Fields,
	}, nil
}

func systemFromString(s string) video.System {
	switch s {
	case "NTSC":
		return video.SystemNTSC
	case "PAL":
		return video.SystemPAL
	case "PAL-M", "PALM":
		return video.SystemPALM
	default:
		return video.SystemUnknown
	}
}

// Field reads and decodes the raw samples for id into a rep.RawField.
func (r *Reader) Field(id field.ID) (rep.FieldRepresentation, error) {
	idx := int(id)
	if idx < 0 || idx >= len(r.fields) {
		return nil, fmt.Errorf("capture: field %s out of range [0,%d)", id, len(r.fields))
	}
	rec := r.fields[idx]

	buf := make([]byte, r.fieldBytes)
	if _, err := r.f.ReadAt(buf, int64(idx)*r.fieldBytes); err != nil {
		return nil, fmt.Errorf("capture: reading field %s: %w", id, err)
	}

	samples := make([]uint16, r.fieldHeight*r.fieldWidth)
	for i := range samples {
		samples[i] = binary.LittleEndian.Uint16(buf[i*2 : i*2+2])
	}

	desc := video.Descriptor{IsFirstField: rec.IsFirstField, LineOffset: rec.LineOffset, Height: r.fieldHeight}
	meta := video.Metadata{
		DiscSide:    rec.DiscSide,
		IsCLV:       rec.IsCLV,
		DropoutHint: rec.Dropouts,
		SyncHint:    rec.SyncHint,
		SourceHint:  rec.SourceHint,
	}

	return rep.NewRawField(id, desc, r.params, meta, samples)
}

// Range returns [0, fieldCount) as discovered from the sidecar.
func (r *Reader) Range() field.Range {
	return field.NewRange(0, field.ID(len(r.fields)))
}

// Close closes the underlying raw sample file.
func (r *Reader) Close() error { return r.f.Close() }

// Parameters returns the capture's video parameters, constant across
// every field in this minimal reader.
func (r *Reader) Parameters(id field.ID) (video.Parameters, error) {
	if int(id) < 0 || int(id) >= len(r.fields) {
		return video.Parameters{}, fmt.Errorf("capture: field %s out of range", id)
	}
	return r.params, nil
}

// Metadata returns the sidecar metadata recorded for id.
func (r *Reader) Metadata(id field.ID) (video.Metadata, error) {
	idx := int(id)
	if idx < 0 || idx >= len(r.fields) {
		return video.Metadata{}, fmt.Errorf("capture: field %s out of range", id)
	}
	rec := r.fields[idx]
	return video.Metadata{
		DiscSide:    rec.DiscSide,
		IsCLV:       rec.IsCLV,
		DropoutHint: rec.Dropouts,
		SyncHint:    rec.SyncHint,
		SourceHint:  rec.SourceHint,
	}, nil
}
