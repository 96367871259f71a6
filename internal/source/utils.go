package source

import (
	"bytes"
	"path/filepath"
)

// hasBOM reports whether content starts with a UTF-8 byte order mark.
func hasBOM(content []byte) bool {
	return len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF
}

// hasCRLF reports whether content contains at least one \r\n sequence.
func hasCRLF(content []byte) bool {
	return bytes.Contains(content, []byte("\r\n"))
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, len(content))
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// Если LineIdx пустой, то весь файл - одна строка
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	// бинпоиск: число переводов строки строго до off
	lo, hi := 0, len(lineIdx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	line := lo // индекс строки (0-based)

	// Находим начало текущей строки
	var startOff uint32
	if line == 0 {
		startOff = 0 // первая строка начинается с позиции 0
	} else {
		startOff = lineIdx[line-1] + 1 // следующая строка начинается после \n предыдущей
	}

	return LineCol{Line: uint32(line + 1), Col: off - startOff + 1}
}

func normalizePath(p string) string {
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}

// AbsolutePath resolves p into an absolute path.
func AbsolutePath(p string) (string, error) {
	return filepath.Abs(p)
}

// RelativePath expresses p relative to baseDir.
func RelativePath(p, baseDir string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.Rel(baseDir, abs)
}

// BaseName returns the last path element of p.
func BaseName(p string) string {
	return filepath.Base(p)
}
