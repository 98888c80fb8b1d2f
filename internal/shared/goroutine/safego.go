// Package goroutine launches background goroutines that log panics instead
// of taking the process down.
package goroutine

import (
	"runtime/debug"

	"chatfleet/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine. A panic inside fn is recovered and
// logged with its stack under the given name.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Errorw("goroutine panicked",
				"goroutine", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}()
		fn()
	}()
}
