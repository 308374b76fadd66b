package param

import "fmt"

// Kind discriminates parameter variants. An object holds at most one
// parameter per kind.
type Kind uint16

const (
	KindContentName Kind = iota + 1
	KindMimeType
	KindExpiration
	KindCompression
	KindPriority
	KindDefaultPermitOutdatedVersions
	KindDefaultExpiration
	KindSortedHeaderInformation
)

const extensionKindBase Kind = 0x100

// ExtensionKind returns the kind used by an extension parameter with the
// given id.
func ExtensionKind(id uint8) Kind {
	return extensionKindBase + Kind(id)
}

func (k Kind) String() string {
	switch k {
	case KindContentName:
		return "ContentName"
	case KindMimeType:
		return "MimeType"
	case KindExpiration:
		return "Expiration"
	case KindCompression:
		return "Compression"
	case KindPriority:
		return "Priority"
	case KindDefaultPermitOutdatedVersions:
		return "DefaultPermitOutdatedVersions"
	case KindDefaultExpiration:
		return "DefaultExpiration"
	case KindSortedHeaderInformation:
		return "SortedHeaderInformation"
	}
	if k >= extensionKindBase {
		return fmt.Sprintf("Extension(0x%02x)", uint16(k-extensionKindBase))
	}
	return fmt.Sprintf("Kind(%d)", uint16(k))
}

// Parameter is one header or directory parameter.
type Parameter interface {
	ID() uint8
	Kind() Kind
	Payload() ([]byte, error)
}
