package param

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/mot/internal/protocol/mottime"
)

func mustPriority(t *testing.T, p int) Priority {
	t.Helper()
	v, err := NewPriority(p)
	if err != nil {
		t.Fatalf("priority %d: %v", p, err)
	}
	return v
}

func TestEncodeHeaderFixtures(t *testing.T) {
	cases := []struct {
		name  string
		param Parameter
		want  string
	}{
		{"content name latin1", NewContentName("TEST"), "cc054054455354"},
		{"content name ucs", ContentName{Name: "TEST", Charset: CharsetISO10646}, "cc05f054455354"},
		{"mime type", MimeType{Type: "image/png"}, "d009696d6167652f706e67"},
		{"relative expiration", RelativeExpiration{Offset: 5 * time.Minute}, "4402"},
		{"absolute expiration short", AbsoluteExpiration{Time: time.Date(2010, 8, 11, 12, 34, 0, 0, time.UTC)}, "84b61ec322"},
		{"absolute expiration long", AbsoluteExpiration{Time: time.Date(2010, 8, 11, 12, 34, 11, 678000000, time.UTC)}, "c406b61ecb222ea6"},
		{"compression", Gzip, "5101"},
		{"priority", mustPriority(t, 4), "4a04"},
		{"permit outdated", DefaultPermitOutdatedVersions{Permit: true}, "4101"},
		{"forbid outdated", DefaultPermitOutdatedVersions{Permit: false}, "4100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := EncodeHeader(tc.param)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got := hex.EncodeToString(b); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	reg := NewHeaderRegistry()
	cases := []Parameter{
		NewContentName("TEST"),
		NewContentName("x"),
		NewContentName("Grüße"),
		ContentName{Name: "Žluť", Charset: CharsetISOLatin2},
		ContentName{Name: "名前", Charset: CharsetISO10646},
		ContentName{Name: strings.Repeat("n", 300), Charset: CharsetISO10646},
		MimeType{Type: "a/b"},
		MimeType{Type: "image/png"},
		RelativeExpiration{Offset: 4 * time.Minute},
		RelativeExpiration{Offset: 10 * 24 * time.Hour},
		Gzip,
		Compression{Type: CompressionReserved},
		mustPriority(t, 1),
		mustPriority(t, 255),
	}
	for _, in := range cases {
		b, err := EncodeHeader(in)
		if err != nil {
			t.Fatalf("%v: encode: %v", in, err)
		}
		out, n, err := Decode(reg, b)
		if err != nil {
			t.Fatalf("%v: decode: %v", in, err)
		}
		if n != len(b) {
			t.Fatalf("%v: expected %d consumed, got %d", in, len(b), n)
		}
		if out != in {
			t.Fatalf("round trip: expected %#v, got %#v", in, out)
		}
	}
}

func TestAbsoluteExpirationRoundTrip(t *testing.T) {
	reg := NewHeaderRegistry()
	for _, ts := range []time.Time{
		time.Date(2010, 8, 11, 12, 34, 0, 0, time.UTC),
		time.Date(2010, 8, 11, 12, 34, 11, 678000000, time.UTC),
		{},
	} {
		b, err := EncodeHeader(AbsoluteExpiration{Time: ts})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		out, _, err := Decode(reg, b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		abs, ok := out.(AbsoluteExpiration)
		if !ok {
			t.Fatalf("expected AbsoluteExpiration, got %T", out)
		}
		if !abs.Time.Equal(ts) {
			t.Fatalf("expected %v, got %v", ts, abs.Time)
		}
	}
}

func TestDirectoryRoundTrip(t *testing.T) {
	reg := NewDirectoryRegistry()
	cases := []Parameter{
		SortedHeaderInformation{},
		DefaultPermitOutdatedVersions{Permit: true},
		DefaultPermitOutdatedVersions{Permit: false},
		DefaultRelativeExpiration{Offset: 30 * time.Minute},
	}
	for _, in := range cases {
		b, err := EncodeDirectory(in)
		if err != nil {
			t.Fatalf("%v: encode: %v", in, err)
		}
		out, n, err := Decode(reg, b)
		if err != nil {
			t.Fatalf("%v: decode: %v", in, err)
		}
		if n != len(b) || out != in {
			t.Fatalf("round trip: expected %#v (%d bytes), got %#v (%d bytes)", in, len(b), out, n)
		}
	}

	ts := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)
	b, err := EncodeDirectory(DefaultAbsoluteExpiration{Time: ts})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, _, err := Decode(reg, b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if abs, ok := out.(DefaultAbsoluteExpiration); !ok || !abs.Time.Equal(ts) {
		t.Fatalf("unexpected default absolute expiration %#v", out)
	}
}

func TestEncodePLIClasses(t *testing.T) {
	cases := []struct {
		n       int
		pli     uint8
		ext     bool
		wireLen int
	}{
		{0, PLINoData, false, 1},
		{1, PLIOneByte, false, 2},
		{3, PLIFourBytes, false, 5},
		{4, PLIFourBytes, false, 5},
		{5, PLIVariable, false, 7},
		{127, PLIVariable, false, 129},
		{128, PLIVariable, true, 131},
		{MaxPayloadLen, PLIVariable, true, MaxPayloadLen + 3},
	}
	for _, tc := range cases {
		payload := bytes.Repeat([]byte{0xab}, tc.n)
		b, err := Encode(0x2a, payload, true)
		if err != nil {
			t.Fatalf("%d bytes: encode: %v", tc.n, err)
		}
		if len(b) != tc.wireLen {
			t.Fatalf("%d bytes: expected wire length %d, got %d", tc.n, tc.wireLen, len(b))
		}
		pre, err := ReadPreamble(b)
		if err != nil {
			t.Fatalf("%d bytes: preamble: %v", tc.n, err)
		}
		if pre.PLI != tc.pli || pre.Ext != tc.ext || pre.ID != 0x2a {
			t.Fatalf("%d bytes: unexpected preamble %+v", tc.n, pre)
		}
		if pre.Size() != len(b) {
			t.Fatalf("%d bytes: preamble size %d, wire %d", tc.n, pre.Size(), len(b))
		}
	}
}

func TestEncodeDirectoryDoesNotPad(t *testing.T) {
	b, err := Encode(7, []byte{1, 2}, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if hex.EncodeToString(b) != "c7020102" {
		t.Fatalf("expected explicit length parameter, got %x", b)
	}
	four, err := Encode(7, []byte{1, 2, 3, 4}, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if hex.EncodeToString(four) != "8701020304" {
		t.Fatalf("expected PLI=2 parameter, got %x", four)
	}
	for _, n := range []int{2, 3, 4} {
		payload := bytes.Repeat([]byte{0xab}, n)
		wire, err := Encode(0x2a, payload, false)
		if err != nil {
			t.Fatalf("%d bytes: encode: %v", n, err)
		}
		pre, err := ReadPreamble(wire)
		if err != nil {
			t.Fatalf("%d bytes: preamble: %v", n, err)
		}
		if pre.DataLen != n || pre.Size() != len(wire) {
			t.Fatalf("%d bytes: preamble %+v does not match wire length %d", n, pre, len(wire))
		}
	}
	padded, err := Encode(7, []byte{1, 2}, true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if hex.EncodeToString(padded) != "8701020000" {
		t.Fatalf("expected padded PLI=2 parameter, got %x", padded)
	}
}

func TestEncodeRejectsOversizeAndBadID(t *testing.T) {
	if _, err := Encode(1, make([]byte, MaxPayloadLen+1), true); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if _, err := Encode(64, nil, true); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	b, err := EncodeHeader(MimeType{Type: "image/png"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, _, err = Decode(NewHeaderRegistry(), b[:len(b)-1])
	if !errors.Is(err, ErrMalformedPreamble) {
		t.Fatalf("expected ErrMalformedPreamble, got %v", err)
	}
	_, _, err = Decode(NewHeaderRegistry(), []byte{0xd0})
	if !errors.Is(err, ErrMalformedPreamble) {
		t.Fatalf("expected ErrMalformedPreamble for truncated length, got %v", err)
	}
}

func TestDecodeUnknownReportsConsumed(t *testing.T) {
	b, err := Encode(0x30, []byte("abcdef"), true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b = append(b, 0xff)
	p, n, err := Decode(NewHeaderRegistry(), b)
	if p != nil {
		t.Fatalf("expected no parameter, got %v", p)
	}
	if !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
	var unknown *UnknownParameterError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownParameterError, got %T", err)
	}
	if unknown.ID != 0x30 || unknown.Consumed != 8 || n != 8 {
		t.Fatalf("unexpected unknown parameter report %+v n=%d", unknown, n)
	}
}

func TestPriorityRange(t *testing.T) {
	for p := -1; p <= 256; p++ {
		_, err := NewPriority(p)
		valid := p >= 1 && p <= 255
		if valid && err != nil {
			t.Fatalf("priority %d: unexpected error %v", p, err)
		}
		if !valid && !errors.Is(err, ErrValidation) {
			t.Fatalf("priority %d: expected ErrValidation, got %v", p, err)
		}
	}
	if _, err := (Priority{}).Payload(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected zero priority to fail on encode, got %v", err)
	}
	_, _, err := Decode(NewHeaderRegistry(), []byte{0x4a, 0x00})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected wrapped validation error, got %v", err)
	}
}

func TestRelativeExpirationValidation(t *testing.T) {
	if _, err := NewRelativeExpiration(64 * 24 * time.Hour); !errors.Is(err, ErrValidation) || !errors.Is(err, mottime.ErrOutOfRange) {
		t.Fatalf("expected validation error wrapping ErrOutOfRange, got %v", err)
	}
	if _, err := (RelativeExpiration{Offset: 100 * 24 * time.Hour}).Payload(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error on encode, got %v", err)
	}
	if _, err := NewRelativeExpiration(63 * 24 * time.Hour); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestExpirationDecodeByLength(t *testing.T) {
	reg := NewHeaderRegistry()
	// PLI=3 with a 3 byte payload
	b := []byte{0xc4, 0x03, 0xb6, 0x1e, 0xc3}
	_, _, err := Decode(reg, b)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for 3 byte expiration, got %v", err)
	}

	p, _, err := Decode(reg, []byte{0x44, 0x02})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rel, ok := p.(RelativeExpiration); !ok || rel.Offset != 4*time.Minute {
		t.Fatalf("expected relative expiration of 4m, got %#v", p)
	}
}

func TestContentNameInvalidCharset(t *testing.T) {
	_, _, err := Decode(NewHeaderRegistry(), []byte{0xcc, 0x02, 0x70, 'a'})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := (ContentName{Name: "名", Charset: CharsetISOLatin1}).Payload(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unrepresentable name to fail, got %v", err)
	}
}

func TestRegistryRegister(t *testing.T) {
	reg := NewHeaderRegistry()
	if err := reg.Register(64, decodeMimeType); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := reg.Register(0x30, nil); !errors.Is(err, ErrNilDecoder) {
		t.Fatalf("expected ErrNilDecoder, got %v", err)
	}

	// last registration wins
	if err := reg.Register(IDMimeType, func([]byte) (Parameter, error) {
		return MimeType{Type: "override"}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	p, _, err := Decode(reg, []byte{0x50, 0x00})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.(MimeType).Type != "override" {
		t.Fatalf("expected override decoder, got %v", p)
	}

	want := []uint8{IDExpiration, IDPriority, IDContentName, IDMimeType, IDCompression}
	got := reg.IDs()
	if len(got) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, got)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindContentName.String() != "ContentName" {
		t.Fatalf("unexpected %q", KindContentName.String())
	}
	if ExtensionKind(0x25).String() != "Extension(0x25)" {
		t.Fatalf("unexpected %q", ExtensionKind(0x25).String())
	}
}
