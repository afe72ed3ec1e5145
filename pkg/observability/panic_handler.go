package observability

import "runtime/debug"

// RecoverPanic recovers a panic in the surrounding function and logs it
// with the stack trace. Meant for long-lived background goroutines (pack
// watcher, sweepers) where a panic must not take the process down:
//
//	go func() {
//		defer observability.RecoverPanic(logger, "pattern watcher")
//		watcher.Run(ctx)
//	}()
//
// The panic is swallowed, so the goroutine simply ends; callers that need
// restart-on-panic handle that themselves.
func RecoverPanic(logger *Logger, scope string) {
	if r := recover(); r != nil {
		logger.WithFields(map[string]interface{}{
			"panic": r,
			"stack": string(debug.Stack()),
			"scope": scope,
		}).Error("Recovered from panic")
	}
}
