package logging

import (
	"log"
	"os"
)

// New builds the process-wide logger. Plain text for now; structured
// logging can be swapped in behind this constructor later.
func New() *log.Logger {
	logger := log.New(os.Stdout, "bytedrop ", log.LstdFlags|log.Lshortfile)
	return logger
}
