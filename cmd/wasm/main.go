//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"sync"
	"syscall/js"
	"time"

	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorUnknownSession
)

var (
	mu       sync.Mutex
	sessions = make(map[string]*lyricsync.Session)
)

// parseLyrics parses LRC text.
// Returns: {error: number, data: {lines: [{time, content}], metadata: {}} | string}
func parseLyrics(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: lrcText")
	}

	tl := lrc.Parse(args[0].String())

	data := js.Global().Get("Object").New()
	data.Set("lines", linesToJS(tl))
	meta := js.Global().Get("Object").New()
	for k, v := range tl.AllMetadata() {
		meta.Set(k, v)
	}
	data.Set("metadata", meta)
	return makeResponse(data)
}

// openSession creates a session over LRC text. The callback receives
// {kind, index, offsetPx, content} for every notification.
// Args: lrcText, callback, options? {centerLine, quietPeriodMs, centerFraction}
// Returns: {error: number, data: sessionId | string}
func openSession(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 2 arguments: lrcText, callback")
	}
	if args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "lrcText must be a string")
	}
	if args[1].Type() != js.TypeFunction {
		return makeErrorResponse(ErrorInvalidArgs, "callback must be a function")
	}
	callback := args[1]

	ec := lyricsync.DefaultEngineConfig()
	if len(args) > 2 && args[2].Type() == js.TypeObject {
		opts := args[2]
		if v := opts.Get("centerLine"); v.Type() == js.TypeBoolean {
			ec.CenterLineEnabled = v.Bool()
		}
		if v := opts.Get("autoScroll"); v.Type() == js.TypeBoolean {
			ec.AutoScrollEnabled = v.Bool()
		}
		if v := opts.Get("quietPeriodMs"); v.Type() == js.TypeNumber {
			ec.UserScrollQuietPeriod = msToDuration(v.Float())
		}
		if v := opts.Get("centerFraction"); v.Type() == js.TypeNumber {
			ec.CenterOffsetFraction = v.Float()
		}
	}

	sess := lyricsync.NewSession(lyricsync.WithEngineConfig(ec))
	sess.Subscribe(lyricsync.ListenerFuncs{
		OnActiveLine: func(index int, line *lrc.Line) {
			ev := js.Global().Get("Object").New()
			ev.Set("kind", string(lyricsync.EventActiveLine))
			ev.Set("index", index)
			if line != nil {
				ev.Set("content", line.Content)
				ev.Set("time", line.TimestampMs)
			}
			callback.Invoke(ev)
		},
		OnScroll: func(offsetPx float64) {
			ev := js.Global().Get("Object").New()
			ev.Set("kind", string(lyricsync.EventScroll))
			ev.Set("offsetPx", offsetPx)
			callback.Invoke(ev)
		},
	})
	sess.LoadTranscript(args[0].String())

	mu.Lock()
	sessions[sess.ID()] = sess
	mu.Unlock()

	return makeResponse(sess.ID())
}

// sessionCall wraps a session operation taking numeric arguments after the
// session id.
func sessionCall(numArgs int, usage string, fn func(s *lyricsync.Session, nums []float64)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) < numArgs+1 || args[0].Type() != js.TypeString {
			return makeErrorResponse(ErrorInvalidArgs, "Expected arguments: "+usage)
		}
		nums := make([]float64, numArgs)
		for i := range nums {
			v := args[i+1]
			if v.Type() != js.TypeNumber {
				return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("argument %d must be a number", i+2))
			}
			nums[i] = v.Float()
		}

		mu.Lock()
		sess, ok := sessions[args[0].String()]
		mu.Unlock()
		if !ok {
			return makeErrorResponse(ErrorUnknownSession, fmt.Sprintf("Unknown session: %s", args[0].String()))
		}

		fn(sess, nums)
		return makeResponse(js.Null())
	})
}

func closeSession(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: sessionId")
	}

	mu.Lock()
	sess, ok := sessions[args[0].String()]
	delete(sessions, args[0].String())
	mu.Unlock()
	if !ok {
		return makeErrorResponse(ErrorUnknownSession, fmt.Sprintf("Unknown session: %s", args[0].String()))
	}

	sess.Close()
	return makeResponse(js.Null())
}

func linesToJS(tl *lrc.Timeline) js.Value {
	arr := js.Global().Get("Array").New()
	for i, line := range tl.Lines() {
		obj := js.Global().Get("Object").New()
		obj.Set("time", line.TimestampMs)
		obj.Set("content", line.Content)
		arr.SetIndex(i, obj)
	}
	return arr
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func makeResponse(data interface{}) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 LyricSync WASM module initializing...")
	}

	done := make(chan struct{})

	api := js.Global().Get("Object").New()
	api.Set("parse", js.FuncOf(parseLyrics))
	api.Set("openSession", js.FuncOf(openSession))
	api.Set("setTime", sessionCall(1, "sessionId, timeMs", func(s *lyricsync.Session, n []float64) {
		s.SetTime(n[0])
	}))
	api.Set("reportHeight", sessionCall(2, "sessionId, index, heightPx", func(s *lyricsync.Session, n []float64) {
		s.ReportHeight(int(n[0]), n[1])
	}))
	api.Set("setViewport", sessionCall(1, "sessionId, heightPx", func(s *lyricsync.Session, n []float64) {
		s.SetViewport(n[0])
	}))
	api.Set("userScroll", sessionCall(0, "sessionId", func(s *lyricsync.Session, _ []float64) {
		s.UserScroll()
	}))
	api.Set("jumpToCurrent", sessionCall(0, "sessionId", func(s *lyricsync.Session, _ []float64) {
		s.JumpToCurrent()
	}))
	api.Set("closeSession", js.FuncOf(closeSession))
	js.Global().Set("lyricsync", api)

	if !console.IsUndefined() {
		console.Call("log", "📝 lyricsync API registered")
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	if !console.IsUndefined() {
		console.Call("log", "✅ LyricSync WASM module loaded and ready")
	}

	<-done
}
