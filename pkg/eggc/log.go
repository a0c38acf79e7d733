package eggc

import "log"

// Verbose enables logging of cache hits.
var Verbose = false

func logf(format string, args ...interface{}) {
	if Verbose {
		log.Printf(format, args...)
	}
}
