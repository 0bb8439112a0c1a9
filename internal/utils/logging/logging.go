// Package logging provides leveled, colored console logging with an
// optional logfile mirror.
package logging

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"downtube/internal/domain/consts"
)

var (
	Level int = -1 // Pre initialization
	mu    sync.Mutex
)

// E prints an error message with caller annotation.
func E(format string, args ...interface{}) string {
	mu.Lock()
	defer mu.Unlock()
	return emitTagged(consts.RedError, format, args...)
}

// W prints a warning message with caller annotation.
func W(format string, args ...interface{}) string {
	mu.Lock()
	defer mu.Unlock()
	return emitTagged(consts.YellowWarning, format, args...)
}

// I prints an informational message.
func I(format string, args ...interface{}) string {
	mu.Lock()
	defer mu.Unlock()
	return emitPlain(consts.BlueInfo, format, args...)
}

// S prints a success message.
func S(format string, args ...interface{}) string {
	mu.Lock()
	defer mu.Unlock()
	return emitPlain(consts.GreenSuccess, format, args...)
}

// D prints a debug message when the configured level permits.
func D(l int, format string, args ...interface{}) string {
	if Level < l {
		return ""
	}
	mu.Lock()
	defer mu.Unlock()
	return emitTagged(consts.YellowDebug, format, args...)
}

func emitPlain(prefix, format string, args ...interface{}) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(format) + (len(args) * 32))
	b.WriteString(prefix)
	if len(args) != 0 {
		fmt.Fprintf(&b, format, args...)
	} else {
		b.WriteString(format)
	}
	b.WriteString("\n")

	msg := b.String()
	fmt.Print(msg)
	writeLog(msg)
	return msg
}

func emitTagged(prefix, format string, args ...interface{}) string {
	pc, file, line, _ := runtime.Caller(2)
	file = filepath.Base(file)
	funcName := filepath.Base(runtime.FuncForPC(pc).Name())

	var b strings.Builder
	b.Grow(len(prefix) + len(format) + (len(args) * 32))
	b.WriteString(prefix)
	if len(args) != 0 {
		fmt.Fprintf(&b, format, args...)
	} else {
		b.WriteString(format)
	}

	b.WriteString(" [")
	b.WriteString(consts.ColorBlue)
	b.WriteString("Function: ")
	b.WriteString(consts.ColorReset)
	b.WriteString(funcName)
	b.WriteString(" - ")
	b.WriteString(consts.ColorBlue)
	b.WriteString("File: ")
	b.WriteString(consts.ColorReset)
	b.WriteString(file)
	b.WriteString(" : ")
	b.WriteString(consts.ColorBlue)
	b.WriteString("Line: ")
	b.WriteString(consts.ColorReset)
	b.WriteString(strconv.Itoa(line))
	b.WriteString("]\n")

	msg := b.String()
	fmt.Print(msg)
	writeLog(msg)
	return msg
}
