// Package psx reads and writes the chunked section container shared by the
// PSK (skeletal mesh) and PSA (animation) file formats.
//
// The container is a flat sequence of sections. Each section starts with a
// 32-byte little-endian header: a 20-byte NUL-padded ASCII name, an int32 of
// type flags, the size of a single data element, and the number of elements.
// The payload is data_size * data_count bytes and follows immediately.
//
// This package deliberately stops at the framing level. It validates
// structure and the exporter's hard limits, but it does not decode element
// payloads into meshes or animation tracks.
package psx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Export limits enforced by the upstream exporter. Files exceeding these
// cannot have been produced by a conforming tool.
const (
	MaxWedges    = 65536
	MaxBones     = 256
	MaxMaterials = 256
)

// sectionTypeFlags is the constant the exporter stamps into every section header.
const sectionTypeFlags = 1999801

// headerSize is the fixed on-disk size of a section header.
const headerSize = 32

// nameSize is the fixed on-disk size of a section name.
const nameSize = 20

// ErrTruncated is returned when a section header promises more payload than
// the stream contains.
var ErrTruncated = errors.New("psx: truncated section payload")

// Section is a single decoded section: its header fields plus raw payload.
type Section struct {
	Name      string
	TypeFlags int32
	DataSize  int32
	DataCount int32
	Data      []byte
}

// ReadSections decodes all sections from r until EOF. It validates framing
// only: header shape, printable names, non-negative sizes, and that each
// payload is fully present.
func ReadSections(r io.Reader) ([]Section, error) {
	var sections []Section

	for {
		var raw [headerSize]byte
		_, err := io.ReadFull(r, raw[:])
		if err == io.EOF {
			return sections, nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("psx: truncated section header at section %d", len(sections))
		}
		if err != nil {
			return nil, err
		}

		name, err := decodeName(raw[:nameSize])
		if err != nil {
			return nil, fmt.Errorf("psx: section %d: %w", len(sections), err)
		}

		sec := Section{
			Name:      name,
			TypeFlags: int32(binary.LittleEndian.Uint32(raw[20:24])),
			DataSize:  int32(binary.LittleEndian.Uint32(raw[24:28])),
			DataCount: int32(binary.LittleEndian.Uint32(raw[28:32])),
		}
		if sec.DataSize < 0 || sec.DataCount < 0 {
			return nil, fmt.Errorf("psx: section %q has negative size or count", sec.Name)
		}

		payload := int64(sec.DataSize) * int64(sec.DataCount)
		if payload > 0 {
			sec.Data = make([]byte, payload)
			if _, err := io.ReadFull(r, sec.Data); err != nil {
				return nil, fmt.Errorf("%w: section %q wants %d bytes", ErrTruncated, sec.Name, payload)
			}
		}

		sections = append(sections, sec)
	}
}

// WriteSection encodes a single section header and payload to w. The data
// slice length must be an exact multiple of dataSize when both are non-zero.
func WriteSection(w io.Writer, name string, dataSize, dataCount int, data []byte) error {
	if len(name) >= nameSize {
		return fmt.Errorf("psx: section name %q exceeds %d bytes", name, nameSize-1)
	}
	if dataSize > 0 && len(data) != dataSize*dataCount {
		return fmt.Errorf("psx: section %q payload is %d bytes, want %d", name, len(data), dataSize*dataCount)
	}

	var raw [headerSize]byte
	copy(raw[:nameSize], name)
	binary.LittleEndian.PutUint32(raw[20:24], uint32(sectionTypeFlags))
	binary.LittleEndian.PutUint32(raw[24:28], uint32(dataSize))
	binary.LittleEndian.PutUint32(raw[28:32], uint32(dataCount))

	if _, err := w.Write(raw[:]); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// decodeName extracts the NUL-terminated section name and rejects
// non-printable garbage, which is the usual symptom of a misaligned read.
func decodeName(raw []byte) (string, error) {
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	name := string(raw[:end])
	if name == "" {
		return "", errors.New("empty section name")
	}
	for _, r := range name {
		if r < 0x20 || r > 0x7e {
			return "", fmt.Errorf("section name %q contains non-printable bytes", name)
		}
	}
	if strings.TrimSpace(name) != name {
		return "", fmt.Errorf("section name %q has surrounding whitespace", name)
	}
	return name, nil
}
