package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// I/O
	IOLoadFileError    Code = 1001
	IOWriteBackupError Code = 1002
	IOWriteFileError   Code = 1003

	// Матчинг return-строк
	ScanReturnLiteral Code = 2001
	ScanAlreadyMerged Code = 2002

	// Разрешение merge-переменной
	ScopeResolved Code = 3001
	ScopeFallback Code = 3002

	// Guard-синтез
	GuardSynthesized    Code = 4001
	GuardInitInserted   Code = 4002
	GuardAlreadyGuarded Code = 4003
)

var codeDescription = map[Code]string{
	UnknownCode:         "unknown error",
	IOLoadFileError:     "failed to load file",
	IOWriteBackupError:  "failed to write backup",
	IOWriteFileError:    "failed to write patched file",
	ScanReturnLiteral:   "return statement builds a bare mapping literal",
	ScanAlreadyMerged:   "return statement already merges a state variable",
	ScopeResolved:       "merge variable resolved from preceding scope",
	ScopeFallback:       "merge variable not found in scope window, fallback used",
	GuardSynthesized:    "return statement wrapped in definedness guard",
	GuardInitInserted:   "guard variable initialization inserted",
	GuardAlreadyGuarded: "return statement is already guarded",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SCAN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SCOPE%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GUARD%04d", ic)
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
