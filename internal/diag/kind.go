package diag

import "fmt"

// Kind collapses a Code into the finding family the checker reports.
// The four core kinds correspond to the validator's contract; IO and
// observability exist for the hosting tool only and never come out of a
// check run itself.
type Kind uint8

const (
	KindNone Kind = iota
	KindStructural
	KindArityMismatch
	KindConflictingBorrow
	KindDanglingReference
	KindIO
	KindObservability
)

// Kind returns the finding family for the code's thousand-range.
func (c Code) Kind() Kind {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return KindStructural
	case ic >= 2000 && ic < 3000:
		return KindArityMismatch
	case ic >= 3000 && ic < 4000:
		return KindConflictingBorrow
	case ic >= 4000 && ic < 5000:
		return KindDanglingReference
	case ic >= 5000 && ic < 6000:
		return KindIO
	case ic >= 6000 && ic < 7000:
		return KindObservability
	}
	return KindNone
}

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindArityMismatch:
		return "arity-mismatch"
	case KindConflictingBorrow:
		return "conflicting-borrow"
	case KindDanglingReference:
		return "dangling-reference"
	case KindIO:
		return "io"
	case KindObservability:
		return "observability"
	}
	return "none"
}

// ParseKind maps manifest/CLI spellings back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "structural":
		return KindStructural, nil
	case "arity-mismatch":
		return KindArityMismatch, nil
	case "conflicting-borrow":
		return KindConflictingBorrow, nil
	case "dangling-reference":
		return KindDanglingReference, nil
	case "io":
		return KindIO, nil
	case "observability":
		return KindObservability, nil
	}
	return KindNone, fmt.Errorf("unknown diagnostic kind %q", s)
}
