// Package device exposes a ring log as a shared, file-like device.
//
// A Device pairs a ringlog.Log with a gate so that every append, lookup and
// seek observes a consistent log. Handles returned by Open carry their own
// read cursor and assembler, so each writer's fragments are reassembled
// independently before they reach the log:
//
//	dev := device.New(16)
//	f := dev.Open()
//	f.Write([]byte("hel"))
//	f.Write([]byte("lo\n"))      // appends "hello\n"
//	f.SeekTo(ctx, 0, 2)          // cursor at "llo\n"
//
// Records displaced from a full log, and records drained by Close, are handed
// to the configured ReleaseHooks after the gate has been released.
package device
