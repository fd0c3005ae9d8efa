package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Структурные: построение дерева областей и привязка имён
	StrInfo              Code = 1000
	StrUnbalancedClose   Code = 1001
	StrUnclosedBlock     Code = 1002
	StrUnknownBinding    Code = 1003
	StrUnknownStruct     Code = 1004
	StrUnknownFunction   Code = 1005
	StrUnknownField      Code = 1006
	StrDuplicateStruct   Code = 1007
	StrDuplicateFunction Code = 1008
	StrSelfOutsideMethod Code = 1009

	// Разрешение lifetime-параметров
	LftInfo            Code = 2000
	LftArityMismatch   Code = 2001
	LftUndeclaredParam Code = 2002
	LftUnusedParam     Code = 2003

	// Конфликты заимствований
	BrwInfo                Code = 3000
	BrwSharedWhileMut      Code = 3001
	BrwMutWhileShared      Code = 3002
	BrwMutWhileMut         Code = 3003
	BrwAssignWhileBorrowed Code = 3004
	BrwImmutableTarget     Code = 3005

	// Висячие ссылки
	DngInfo           Code = 4000
	DngAssignOutlives Code = 4001
	DngFieldOutlives  Code = 4002
	DngReturnOutlives Code = 4003
	DngCallOutlives   Code = 4004

	// Ошибки I/O и декодирования описаний
	IOInfo        Code = 5000
	IOLoadError   Code = 5001
	IODecodeError Code = 5002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var ( // todo расширить описания и использовать как notes
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		StrInfo:                "Structural information",
		StrUnbalancedClose:     "Block close without matching open",
		StrUnclosedBlock:       "Block opened but never closed",
		StrUnknownBinding:      "Reference to unknown binding",
		StrUnknownStruct:       "Reference to unknown struct",
		StrUnknownFunction:     "Reference to unknown function",
		StrUnknownField:        "Reference to unknown field",
		StrDuplicateStruct:     "Duplicate struct definition",
		StrDuplicateFunction:   "Duplicate function definition",
		StrSelfOutsideMethod:   "'self' used outside a method body",
		LftInfo:                "Lifetime information",
		LftArityMismatch:       "Lifetime argument count mismatch",
		LftUndeclaredParam:     "Lifetime parameter not declared",
		LftUnusedParam:         "Lifetime parameter declared but never used",
		BrwInfo:                "Borrow information",
		BrwSharedWhileMut:      "Shared borrow while exclusively borrowed",
		BrwMutWhileShared:      "Exclusive borrow while shared borrows are live",
		BrwMutWhileMut:         "Exclusive borrow while already exclusively borrowed",
		BrwAssignWhileBorrowed: "Assignment to a borrowed binding",
		BrwImmutableTarget:     "Exclusive access to immutable binding",
		DngInfo:                "Dangling reference information",
		DngAssignOutlives:      "Stored reference outlives its referent",
		DngFieldOutlives:       "Struct field reference outlives its referent",
		DngReturnOutlives:      "Returned reference outlives its referent",
		DngCallOutlives:        "Call result reference outlives a tied referent",
		IOInfo:                 "I/O information",
		IOLoadError:            "Failed to load description document",
		IODecodeError:          "Failed to decode description document",
		ObsInfo:                "Observability information",
		ObsTimings:             "Check timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("STR%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LFT%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BRW%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("DNG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
