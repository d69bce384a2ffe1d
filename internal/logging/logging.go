// Package logging configures the process-wide logger exactly once.
package logging

import (
	"log"
	"os"
	"sync"
)

var once sync.Once
var initialized bool

// Init configures the stdlib logger with timestamps and source locations.
// Returns true the first time it is called in the process lifetime, false
// on every subsequent call.
func Init() bool {
	first := false
	once.Do(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		first = true
		initialized = true
	})
	return first
}

// Initialized reports whether Init has already run.
func Initialized() bool {
	return initialized
}
