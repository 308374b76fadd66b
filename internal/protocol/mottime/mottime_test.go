package mottime

import (
	"encoding/hex"
	"errors"
	"testing"
	"time"
)

func TestEncodeAbsoluteNow(t *testing.T) {
	b, err := EncodeAbsolute(time.Time{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if hex.EncodeToString(b) != "00000000" {
		t.Fatalf("expected four zero bytes, got %x", b)
	}
	got, err := DecodeAbsolute(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
}

func TestEncodeAbsoluteFixtures(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want string
	}{
		{"short", time.Date(2010, 8, 11, 12, 34, 0, 0, time.UTC), "b61ec322"},
		{"long", time.Date(2010, 8, 11, 12, 34, 11, 678*int(time.Millisecond), time.UTC), "b61ecb222ea6"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := EncodeAbsolute(tc.in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got := hex.EncodeToString(b); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			back, err := DecodeAbsolute(b)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !back.Equal(tc.in) {
				t.Fatalf("round trip: expected %v, got %v", tc.in, back)
			}
		})
	}
}

func TestEncodeAbsoluteConvertsToUTC(t *testing.T) {
	zone := time.FixedZone("CEST", 2*60*60)
	local := time.Date(2010, 8, 11, 14, 34, 0, 0, zone)
	b, err := EncodeAbsolute(local)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if hex.EncodeToString(b) != "b61ec322" {
		t.Fatalf("expected utc encoding, got %x", b)
	}
}

func TestEncodeAbsoluteOutOfRange(t *testing.T) {
	_, err := EncodeAbsolute(time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestDecodeAbsoluteInvalid(t *testing.T) {
	if _, err := DecodeAbsolute([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	// long form flag set but only four bytes present
	if _, err := DecodeAbsolute([]byte{0xb6, 0x1e, 0xcb, 0x22}); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength for flag mismatch, got %v", err)
	}
	// hour 31
	if _, err := DecodeAbsolute([]byte{0xb6, 0x1e, 0xc7, 0xe2}); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestMJD(t *testing.T) {
	if got := MJD(time.Date(2010, 8, 11, 23, 59, 0, 0, time.UTC)); got != 55419 {
		t.Fatalf("expected 55419, got %d", got)
	}
	if got := MJD(time.Date(1858, 11, 17, 0, 0, 0, 0, time.UTC)); got != 0 {
		t.Fatalf("expected mjd epoch 0, got %d", got)
	}
	if got := FromMJD(55419); !got.Equal(time.Date(2010, 8, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestEncodeRelativeFixture(t *testing.T) {
	b, err := EncodeRelative(5 * time.Minute)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if hex.EncodeToString(b) != "02" {
		t.Fatalf("expected 02, got %x", b)
	}
}

func TestEncodeRelativeBands(t *testing.T) {
	cases := []struct {
		in       time.Duration
		gran     Granularity
		interval uint8
	}{
		{0, GranularityTwoMinutes, 0},
		{2 * time.Minute, GranularityTwoMinutes, 1},
		{126 * time.Minute, GranularityTwoMinutes, 63},
		{127 * time.Minute, GranularityHalfHours, 4},
		{1890 * time.Minute, GranularityHalfHours, 63},
		{1891 * time.Minute, GranularityTwoHours, 15},
		{126 * time.Hour, GranularityTwoHours, 63},
		{127 * time.Hour, GranularityDays, 5},
		{63 * 24 * time.Hour, GranularityDays, 63},
	}
	for _, tc := range cases {
		b, err := EncodeRelative(tc.in)
		if err != nil {
			t.Fatalf("%v: encode: %v", tc.in, err)
		}
		if g := Granularity(b[0] >> 6); g != tc.gran {
			t.Fatalf("%v: expected granularity %v, got %v", tc.in, tc.gran, g)
		}
		if iv := b[0] & 0x3f; iv != tc.interval {
			t.Fatalf("%v: expected interval %d, got %d", tc.in, tc.interval, iv)
		}
	}
}

func TestEncodeRelativeNeverFailsWithinRange(t *testing.T) {
	for d := time.Minute; d <= MaxRelative; d += 37 * time.Minute {
		if _, err := EncodeRelative(d); err != nil {
			t.Fatalf("%v: unexpected error %v", d, err)
		}
	}
}

func TestEncodeRelativeOutOfRange(t *testing.T) {
	for _, d := range []time.Duration{MaxRelative + time.Second, 64 * 24 * time.Hour, -time.Minute} {
		_, err := EncodeRelative(d)
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%v: expected ErrOutOfRange, got %v", d, err)
		}
		var rangeErr *RangeError
		if !errors.As(err, &rangeErr) {
			t.Fatalf("%v: expected RangeError, got %T", d, err)
		}
	}
}

func TestRelativeRoundTripOnStepMultiples(t *testing.T) {
	for _, d := range []time.Duration{
		4 * time.Minute,
		126 * time.Minute,
		3 * time.Hour,
		30 * time.Hour,
		100 * time.Hour,
		10 * 24 * time.Hour,
		MaxRelative,
	} {
		b, err := EncodeRelative(d)
		if err != nil {
			t.Fatalf("%v: encode: %v", d, err)
		}
		got, err := DecodeRelative(b)
		if err != nil {
			t.Fatalf("%v: decode: %v", d, err)
		}
		if got != d {
			t.Fatalf("expected %v, got %v", d, got)
		}
	}
}

func TestDecodeRelativeInvalidLength(t *testing.T) {
	if _, err := DecodeRelative(nil); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}
