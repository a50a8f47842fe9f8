// Package clog provides conditional logging for fabric components.
package clog

import (
	"fmt"
	"log"
)

var enabled = false

// Enable turns on conditional log output fabric-wide.
func Enable() {
	enabled = true
}

// Enabled reports whether conditional log output is currently on.
func Enabled() bool {
	return enabled
}

// A CLogger logs in the manner of the standard logger but its Printf calls
// are no-ops unless conditional logging has been turned on with Enable.
// Errorf always logs, regardless of the conditional flag.
type CLogger struct {
	logger *log.Logger
}

// New creates a conditional logger with the given prefix, built the same way
// a component's own identity (role and id) is usually formatted.
func New(prefixFormat string, prefixArgs ...any) *CLogger {
	return &CLogger{
		log.New(
			log.Default().Writer(),
			fmt.Sprintf(prefixFormat, prefixArgs...),
			log.Ldate|log.Ltime|log.Lmicroseconds|log.Lmsgprefix,
		),
	}
}

// Printf logs conditionally, in the manner of log.Printf.
func (c *CLogger) Printf(format string, a ...any) {
	if !enabled {
		return
	}
	c.logger.Printf(format, a...)
}

// Errorf logs unconditionally, in the manner of log.Printf.
func (c *CLogger) Errorf(format string, a ...any) {
	c.logger.Printf(format, a...)
}
