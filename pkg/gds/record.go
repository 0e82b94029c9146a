package gds

import (
	"math"
	"time"
)

// Record types, combined with their data type (type<<8 | datatype).
const (
	recHeader   uint16 = 0x0002
	recBgnLib   uint16 = 0x0102
	recLibName  uint16 = 0x0206
	recUnits    uint16 = 0x0305
	recEndLib   uint16 = 0x0400
	recBgnStr   uint16 = 0x0502
	recStrName  uint16 = 0x0606
	recEndStr   uint16 = 0x0700
	recBoundary uint16 = 0x0800
	recPath     uint16 = 0x0900
	recSRef     uint16 = 0x0A00
	recARef     uint16 = 0x0B00
	recText     uint16 = 0x0C00
	recLayer    uint16 = 0x0D02
	recDatatype uint16 = 0x0E02
	recXY       uint16 = 0x1003
	recEndEl    uint16 = 0x1100
	recNode     uint16 = 0x1500
	recBox      uint16 = 0x2D00
)

// streamVersion is written in the HEADER record.
const streamVersion = 600

// maxRecordLen is the largest record including its 4-byte header.
const maxRecordLen = 0xFFFF

// encodeReal8 converts v to the GDSII 8-byte real: sign bit, 7-bit excess-64
// base-16 exponent and a 56-bit mantissa in [1/16, 1).
func encodeReal8(v float64) uint64 {
	if v == 0 {
		return 0
	}
	var sign uint64
	if v < 0 {
		sign = 1 << 63
		v = -v
	}
	exp := 64
	for v >= 1 {
		v /= 16
		exp++
	}
	for v < 1.0/16 {
		v *= 16
		exp--
	}
	mant := uint64(math.Round(v * (1 << 56)))
	if mant == 1<<56 {
		mant >>= 4
		exp++
	}
	return sign | uint64(exp&0x7f)<<56 | mant
}

// decodeReal8 is the inverse of encodeReal8.
func decodeReal8(b uint64) float64 {
	mant := b & (1<<56 - 1)
	exp := int((b >> 56) & 0x7f)
	v := math.Ldexp(float64(mant), 4*(exp-64)-56)
	if b>>63 == 1 {
		v = -v
	}
	return v
}

// timestamp encodes t as the six int16 fields used by BGNLIB and BGNSTR.
func timestamp(t time.Time) [6]int16 {
	if t.IsZero() {
		return [6]int16{}
	}
	return [6]int16{
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()),
	}
}

func parseTimestamp(f []int16) time.Time {
	if len(f) < 6 || f[0] == 0 {
		return time.Time{}
	}
	return time.Date(int(f[0]), time.Month(f[1]), int(f[2]), int(f[3]), int(f[4]), int(f[5]), 0, time.UTC)
}
