// Package workerid gives each long-lived worker goroutine a stable 16-bit
// identity: "(runtime_id<<8)|(worker_index+1)", zero meaning "not a
// runtime worker."
//
// Go goroutines carry no native thread-local storage and can migrate
// between OS threads at any yield point, so identity has to be tracked
// explicitly. What the waker protocol actually needs is "is the code
// calling Wake() right now running on the goroutine that owns this
// worker loop" — and since each worker loop is one goroutine for the
// lifetime of the pool, goroutine identity is the correct analogue of
// thread identity here. We derive it from runtime.Stack, the same
// technique production goroutine-local-storage shims (e.g. the
// well-known petermattis/goid approach) use.
package workerid

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var (
	mu  sync.RWMutex
	ids = make(map[int64]uint16)
)

// goroutineID extracts the numeric id Go prints in a goroutine's stack
// dump header ("goroutine 123 [running]:"). It is intentionally cheap:
// only the first line of the stack is requested.
func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i >= 0 {
		buf = buf[:i]
	}
	id, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// Bind assigns id as the calling goroutine's worker identity for as long
// as that goroutine runs the worker loop. Call once, at worker-loop entry.
func Bind(id uint16) {
	gid := goroutineID()
	if gid < 0 {
		return
	}
	mu.Lock()
	ids[gid] = id
	mu.Unlock()
}

// Unbind removes the calling goroutine's worker identity. Call when a
// worker loop exits, so goroutine ids are not retained forever.
func Unbind() {
	gid := goroutineID()
	if gid < 0 {
		return
	}
	mu.Lock()
	delete(ids, gid)
	mu.Unlock()
}

// Current returns the calling goroutine's bound worker id, or (0, false)
// if the platform's lookup failed or the goroutine never called Bind —
// both cases fall back to the non-notifying remote push path.
func Current() (uint16, bool) {
	gid := goroutineID()
	if gid < 0 {
		return 0, false
	}
	mu.RLock()
	id, ok := ids[gid]
	mu.RUnlock()
	return id, ok
}
