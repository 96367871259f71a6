package main

import (
	"fmt"
	"os"
	"strings"
)

// progressMode controls the interactive progress display. Auto enables it
// only when stdout is a terminal, so piped runs stay plain.
type progressMode uint8

const (
	progressAuto progressMode = iota
	progressOn
	progressOff
)

func parseProgressMode(value string) (progressMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return progressAuto, nil
	case "on":
		return progressOn, nil
	case "off":
		return progressOff, nil
	default:
		return progressAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func (m progressMode) wantProgressUI() bool {
	switch m {
	case progressOn:
		return true
	case progressOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
