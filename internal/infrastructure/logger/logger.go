package logger

import (
	"io"
	"log"
	"os"
)

var (
	Info  *log.Logger
	Error *log.Logger
	Debug *log.Logger
	Warn  *log.Logger
)

func init() {
	logFlags := log.Ldate | log.Ltime | log.LUTC | log.Lshortfile

	Info = log.New(os.Stdout, "INFO: ", logFlags)
	Warn = log.New(os.Stderr, "WARN: ", logFlags)
	Error = log.New(os.Stderr, "ERROR: ", logFlags)

	// Debug output is silent unless DEBUG is set
	debugOut := io.Discard
	if os.Getenv("DEBUG") != "" {
		debugOut = os.Stdout
	}
	Debug = log.New(debugOut, "DEBUG: ", logFlags)
}
