package logging

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var (
	loggable bool
	logger   *log.Logger
)

// Matches ANSI escape codes so logfile entries stay plain text.
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// SetupLogging creates and/or opens the log file inside targetDir.
func SetupLogging(targetDir string) error {
	path := filepath.Join(targetDir, "downtube.log")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	logger = log.New(f, "", log.LstdFlags)
	loggable = true

	logger.Printf(":\n=========== %v ===========\n\n", time.Now().Format(time.RFC1123Z))
	return nil
}

// writeLog mirrors a console message into the logfile, if one is open.
// Callers hold the package mutex.
func writeLog(msg string) {
	if !loggable {
		return
	}
	logger.Print(ansiEscape.ReplaceAllString(msg, ""))
}
