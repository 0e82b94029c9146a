package gds

import (
	"encoding/binary"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r2"
)

type rawRecord struct {
	typ  uint16
	data []byte
}

type reader struct {
	r   io.Reader
	hdr [4]byte
}

func (rd *reader) next() (rawRecord, error) {
	if _, err := io.ReadFull(rd.r, rd.hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return rawRecord{}, fmt.Errorf("%w: unexpected end of stream", ErrMalformed)
		}
		return rawRecord{}, err
	}
	size := int(binary.BigEndian.Uint16(rd.hdr[0:2]))
	typ := binary.BigEndian.Uint16(rd.hdr[2:4])
	if size < 4 || size%2 != 0 {
		return rawRecord{}, fmt.Errorf("%w: record 0x%04x has length %d", ErrMalformed, typ, size)
	}
	data := make([]byte, size-4)
	if _, err := io.ReadFull(rd.r, data); err != nil {
		return rawRecord{}, fmt.Errorf("%w: truncated record 0x%04x: %v", ErrMalformed, typ, err)
	}
	return rawRecord{typ: typ, data: data}, nil
}

func (r rawRecord) int16s() []int16 {
	out := make([]int16, len(r.data)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(r.data[2*i:]))
	}
	return out
}

func (r rawRecord) int32s() []int32 {
	out := make([]int32, len(r.data)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.data[4*i:]))
	}
	return out
}

func (r rawRecord) reals() []float64 {
	out := make([]float64, len(r.data)/8)
	for i := range out {
		out[i] = decodeReal8(binary.BigEndian.Uint64(r.data[8*i:]))
	}
	return out
}

func (r rawRecord) str() string {
	b := r.data
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// Read decodes a GDSII stream. Boundaries are returned in user units without
// the closing point. Elements other than boundaries are skipped.
func Read(in io.Reader) (*Library, error) {
	rd := &reader{r: in}
	rec, err := rd.next()
	if err != nil {
		return nil, err
	}
	if rec.typ != recHeader {
		return nil, fmt.Errorf("%w: stream does not start with HEADER", ErrMalformed)
	}

	lib := &Library{}
	var (
		cell     *Cell
		boundary *Boundary
		skipping bool
	)
	for {
		rec, err := rd.next()
		if err != nil {
			return nil, err
		}
		if skipping {
			if rec.typ == recEndEl {
				skipping = false
			}
			continue
		}
		switch rec.typ {
		case recBgnLib:
			lib.Modified = parseTimestamp(rec.int16s())
		case recLibName:
			lib.Name = rec.str()
		case recUnits:
			v := rec.reals()
			if len(v) != 2 || v[0] <= 0 || v[1] <= 0 {
				return nil, fmt.Errorf("%w: invalid UNITS record", ErrMalformed)
			}
			lib.Precision = v[1]
			lib.Unit = v[1] / v[0]
		case recBgnStr:
			lib.Cells = append(lib.Cells, Cell{})
			cell = &lib.Cells[len(lib.Cells)-1]
		case recStrName:
			if cell == nil {
				return nil, fmt.Errorf("%w: STRNAME outside structure", ErrMalformed)
			}
			cell.Name = rec.str()
		case recEndStr:
			cell = nil
		case recBoundary:
			if cell == nil {
				return nil, fmt.Errorf("%w: BOUNDARY outside structure", ErrMalformed)
			}
			boundary = &Boundary{}
		case recLayer:
			if boundary != nil {
				if v := rec.int16s(); len(v) > 0 {
					boundary.Layer = v[0]
				}
			}
		case recDatatype:
			if boundary != nil {
				if v := rec.int16s(); len(v) > 0 {
					boundary.Datatype = v[0]
				}
			}
		case recXY:
			if boundary != nil {
				if lib.Unit == 0 {
					return nil, fmt.Errorf("%w: XY before UNITS", ErrMalformed)
				}
				boundary.Points = lib.points(rec.int32s())
			}
		case recEndEl:
			if boundary != nil {
				if cell == nil {
					return nil, fmt.Errorf("%w: ENDEL outside structure", ErrMalformed)
				}
				cell.Boundaries = append(cell.Boundaries, *boundary)
				boundary = nil
			}
		case recPath, recSRef, recARef, recText, recNode, recBox:
			skipping = true
		case recEndLib:
			return lib, nil
		}
	}
}

// points converts a flat XY list to user units and drops the closing point.
func (l *Library) points(xy []int32) []r2.Vec {
	pts := make([]r2.Vec, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		pts = append(pts, r2.Vec{X: l.fromDB(xy[i]), Y: l.fromDB(xy[i+1])})
	}
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return pts
}
