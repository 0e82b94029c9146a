package gds

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/matzehuels/gdstools/pkg/errors"
)

// writer emits records and remembers the first error.
type writer struct {
	w   io.Writer
	n   int64
	err error
	buf []byte
}

func (w *writer) record(rt uint16, data []byte) {
	if w.err != nil {
		return
	}
	size := 4 + len(data)
	if size > maxRecordLen {
		w.err = fmt.Errorf("gds: record 0x%04x too long (%d bytes)", rt, size)
		return
	}
	w.buf = w.buf[:0]
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(size))
	w.buf = binary.BigEndian.AppendUint16(w.buf, rt)
	w.buf = append(w.buf, data...)
	n, err := w.w.Write(w.buf)
	w.n += int64(n)
	w.err = err
}

func (w *writer) empty(rt uint16) { w.record(rt, nil) }

func (w *writer) int16s(rt uint16, vs ...int16) {
	data := make([]byte, 0, 2*len(vs))
	for _, v := range vs {
		data = binary.BigEndian.AppendUint16(data, uint16(v))
	}
	w.record(rt, data)
}

func (w *writer) int32s(rt uint16, vs []int32) {
	data := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		data = binary.BigEndian.AppendUint32(data, uint32(v))
	}
	w.record(rt, data)
}

func (w *writer) reals(rt uint16, vs ...float64) {
	data := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		data = binary.BigEndian.AppendUint64(data, encodeReal8(v))
	}
	w.record(rt, data)
}

// str writes an ASCII record padded with NUL to an even length.
func (w *writer) str(rt uint16, s string) {
	data := []byte(s)
	if len(data)%2 == 1 {
		data = append(data, 0)
	}
	w.record(rt, data)
}

// WriteTo writes l as a GDSII stream. It implements io.WriterTo.
//
// The library is validated first: cell names must be valid GDSII names and
// unique, and every boundary must have between 3 and MaxPoints vertices with
// coordinates that fit in 32-bit database units. Nothing is written if
// validation fails.
func (l *Library) WriteTo(out io.Writer) (int64, error) {
	if err := l.validate(); err != nil {
		return 0, err
	}
	w := &writer{w: out}
	ts := timestamp(l.Modified)
	dates := append(ts[:], ts[:]...)

	w.int16s(recHeader, streamVersion)
	w.int16s(recBgnLib, dates...)
	w.str(recLibName, l.Name)
	w.reals(recUnits, l.Precision/l.Unit, l.Precision)
	for _, c := range l.Cells {
		w.int16s(recBgnStr, dates...)
		w.str(recStrName, c.Name)
		for _, b := range c.Boundaries {
			w.empty(recBoundary)
			w.int16s(recLayer, b.Layer)
			w.int16s(recDatatype, b.Datatype)
			n := len(b.Points)
			xy := make([]int32, 0, 2*(n+1))
			for i := range n + 1 {
				p := b.Points[i%n]
				x, _ := l.toDB(p.X)
				y, _ := l.toDB(p.Y)
				xy = append(xy, x, y)
			}
			w.int32s(recXY, xy)
			w.empty(recEndEl)
		}
		w.empty(recEndStr)
	}
	w.empty(recEndLib)
	return w.n, w.err
}

func (l *Library) validate() error {
	if l.Unit <= 0 || l.Precision <= 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "gds: unit %g and precision %g must be positive", l.Unit, l.Precision)
	}
	if l.Name == "" {
		return errors.New(errors.ErrCodeInvalidName, "gds: library name cannot be empty")
	}
	seen := make(map[string]bool, len(l.Cells))
	for _, c := range l.Cells {
		if err := errors.ValidateName(c.Name); err != nil {
			return err
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateCell, c.Name)
		}
		seen[c.Name] = true
		for i, b := range c.Boundaries {
			switch {
			case len(b.Points) < 3:
				return fmt.Errorf("%w: cell %s boundary %d has %d", ErrInvalidBoundary, c.Name, i, len(b.Points))
			case len(b.Points) > MaxPoints:
				return fmt.Errorf("%w: cell %s boundary %d has %d (max %d)", ErrTooManyPoints, c.Name, i, len(b.Points), MaxPoints)
			}
			for _, p := range b.Points {
				if _, ok := l.toDB(p.X); !ok {
					return fmt.Errorf("%w: cell %s x=%g", ErrCoordinateOverflow, c.Name, p.X)
				}
				if _, ok := l.toDB(p.Y); !ok {
					return fmt.Errorf("%w: cell %s y=%g", ErrCoordinateOverflow, c.Name, p.Y)
				}
			}
		}
	}
	return nil
}
