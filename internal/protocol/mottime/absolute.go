package mottime

import (
	"bytes"
	"fmt"
	"time"

	"github.com/icza/bitio"
)

const (
	// AbsoluteShortLen is the size of an absolute time without seconds.
	AbsoluteShortLen = 4
	// AbsoluteLongLen is the size of an absolute time with seconds and milliseconds.
	AbsoluteLongLen = 6

	mjdUnixEpoch = 40587
	maxMJD       = 1<<17 - 1
	secondsInDay = 24 * 60 * 60
)

// MJD returns the Modified Julian Day of t in UTC.
func MJD(t time.Time) int64 {
	days := t.UTC().Unix()
	if days < 0 && days%secondsInDay != 0 {
		days -= secondsInDay
	}
	return days/secondsInDay + mjdUnixEpoch
}

// FromMJD returns midnight UTC of the given Modified Julian Day.
func FromMJD(mjd int64) time.Time {
	return time.Unix((mjd-mjdUnixEpoch)*secondsInDay, 0).UTC()
}

// EncodeAbsolute renders t as an absolute time. The zero time encodes as
// four zero bytes, meaning "now". The long form is used when t has a
// non-zero seconds field; milliseconds are only carried by the long form.
func EncodeAbsolute(t time.Time) ([]byte, error) {
	if t.IsZero() {
		return make([]byte, AbsoluteShortLen), nil
	}
	t = t.UTC()
	mjd := MJD(t)
	if mjd < 0 || mjd > maxMJD {
		return nil, &RangeError{Value: t.Format(time.RFC3339), Reason: "date outside 17 bit MJD range"}
	}

	long := t.Second() != 0
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	w.TryWriteBool(true) // validity
	w.TryWriteBits(uint64(mjd), 17)
	w.TryWriteBits(0, 2) // rfu
	w.TryWriteBool(long)
	w.TryWriteBits(uint64(t.Hour()), 5)
	w.TryWriteBits(uint64(t.Minute()), 6)
	if long {
		w.TryWriteBits(uint64(t.Second()), 6)
		w.TryWriteBits(uint64(t.Nanosecond()/int(time.Millisecond)), 10)
	}
	if w.TryError != nil {
		return nil, w.TryError
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeAbsolute parses an absolute time. An all-zero field or a cleared
// validity flag decodes to the zero time ("now").
func DecodeAbsolute(b []byte) (time.Time, error) {
	if len(b) != AbsoluteShortLen && len(b) != AbsoluteLongLen {
		return time.Time{}, fmt.Errorf("%w: absolute time of %d bytes", ErrInvalidLength, len(b))
	}
	if allZero(b) {
		return time.Time{}, nil
	}

	r := bitio.NewReader(bytes.NewReader(b))
	valid := r.TryReadBool()
	mjd := r.TryReadBits(17)
	r.TryReadBits(2)
	long := r.TryReadBool()
	hour := r.TryReadBits(5)
	minute := r.TryReadBits(6)
	var second, milli uint64
	if long {
		second = r.TryReadBits(6)
		milli = r.TryReadBits(10)
	}
	if r.TryError != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidLength, r.TryError)
	}
	if !valid {
		return time.Time{}, nil
	}
	if long != (len(b) == AbsoluteLongLen) {
		return time.Time{}, fmt.Errorf("%w: utc flag %t with %d bytes", ErrInvalidLength, long, len(b))
	}
	if hour > 23 || minute > 59 || second > 59 || milli > 999 {
		return time.Time{}, fmt.Errorf("%w: %02d:%02d:%02d.%03d", ErrInvalidField, hour, minute, second, milli)
	}

	day := FromMJD(int64(mjd))
	return day.Add(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second +
		time.Duration(milli)*time.Millisecond), nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
