package crypto

import (
	"runtime"
	"sync/atomic"
)

// eraseSink keeps Erase's writes observable so they are not elided.
var eraseSink atomic.Uint64

// Erase zeroes b in place. Use it on buffers that held key material once
// they are no longer needed. Copies made by the runtime, such as strings
// built from b, are not reached.
func Erase(b []byte) {
	if len(b) == 0 {
		return
	}
	clear(b)
	runtime.KeepAlive(b)
	eraseSink.Add(uint64(b[0]))
}
