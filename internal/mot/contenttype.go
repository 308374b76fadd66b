package mot

import "fmt"

const (
	maxContentType    = 1<<6 - 1
	maxContentSubtype = 1<<9 - 1
)

// ContentType is the 6 bit type and 9 bit subtype pair of an object.
type ContentType struct {
	Type    uint8
	Subtype uint16
}

func (c ContentType) String() string {
	return fmt.Sprintf("[%d:%d]", c.Type, c.Subtype)
}

func (c ContentType) valid() bool {
	return c.Type <= maxContentType && c.Subtype <= maxContentSubtype
}

// Well known content types, ETSI TS 101 756 table 17.
var (
	GeneralObjectTransfer = ContentType{0, 0}
	GeneralMIMEHTTP       = ContentType{0, 1}

	TextASCII = ContentType{1, 0}
	TextISO   = ContentType{1, 1}
	TextHTML  = ContentType{1, 2}

	ImageGIF  = ContentType{2, 0}
	ImageJFIF = ContentType{2, 1}
	ImageBMP  = ContentType{2, 2}
	ImagePNG  = ContentType{2, 3}

	AudioMPEG1L1    = ContentType{3, 0}
	AudioMPEG1L2    = ContentType{3, 1}
	AudioMPEG1L3    = ContentType{3, 2}
	AudioMPEG2L1    = ContentType{3, 3}
	AudioMPEG2L2    = ContentType{3, 4}
	AudioMPEG2L3    = ContentType{3, 5}
	AudioPCM        = ContentType{3, 6}
	AudioAIFF       = ContentType{3, 7}
	AudioATRAC      = ContentType{3, 8}
	AudioATRAC2     = ContentType{3, 9}
	AudioMPEG4      = ContentType{3, 10}
	VideoMPEG1      = ContentType{4, 0}
	VideoMPEG2      = ContentType{4, 1}
	VideoMPEG4      = ContentType{4, 2}
	VideoH263       = ContentType{4, 3}
	MOTHeaderUpdate = ContentType{5, 0}
	SystemMHEG      = ContentType{6, 0}
	SystemJava      = ContentType{6, 1}
)

var catalog = make(map[ContentType]string)

func init() {
	for name, ct := range map[string]ContentType{
		"general/object-transfer": GeneralObjectTransfer,
		"general/mime-http":       GeneralMIMEHTTP,
		"text/ascii":              TextASCII,
		"text/iso":                TextISO,
		"text/html":               TextHTML,
		"image/gif":               ImageGIF,
		"image/jfif":              ImageJFIF,
		"image/bmp":               ImageBMP,
		"image/png":               ImagePNG,
		"audio/mpeg1-l1":          AudioMPEG1L1,
		"audio/mpeg1-l2":          AudioMPEG1L2,
		"audio/mpeg1-l3":          AudioMPEG1L3,
		"audio/mpeg2-l1":          AudioMPEG2L1,
		"audio/mpeg2-l2":          AudioMPEG2L2,
		"audio/mpeg2-l3":          AudioMPEG2L3,
		"audio/pcm":               AudioPCM,
		"audio/aiff":              AudioAIFF,
		"audio/atrac":             AudioATRAC,
		"audio/atrac2":            AudioATRAC2,
		"audio/mpeg4":             AudioMPEG4,
		"video/mpeg1":             VideoMPEG1,
		"video/mpeg2":             VideoMPEG2,
		"video/mpeg4":             VideoMPEG4,
		"video/h263":              VideoH263,
		"mot/header-update":       MOTHeaderUpdate,
		"system/mheg":             SystemMHEG,
		"system/java":             SystemJava,
	} {
		catalog[ct] = name
	}
}

// Name returns the catalog name of c, if it has one.
func (c ContentType) Name() (string, bool) {
	name, ok := catalog[c]
	return name, ok
}
