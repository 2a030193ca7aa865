// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package maskcanvas

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// captureLogger returns a debug-level text logger writing into buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestEditorSilentByDefault(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Fatal("package logger is enabled before SetLogger")
	}
	// Nothing to observe beyond not panicking on the nop path.
	ed := openEditor(t, 32, 32)
	ed.Close()
}

func TestSetLoggerReachesNewEditors(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(captureLogger(&buf))
	openEditor(t, 32, 32)

	out := buf.String()
	for _, want := range []string{"canvas: image loaded", "maskcanvas: editor opened"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestWithLoggerOverridesPackageLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var global, local bytes.Buffer
	SetLogger(captureLogger(&global))
	ed := openEditor(t, 32, 32, WithLogger(captureLogger(&local)))
	ed.Close()

	if global.Len() != 0 {
		t.Errorf("package logger received editor output:\n%s", global.String())
	}
	if !strings.Contains(local.String(), "maskcanvas: editor closed") {
		t.Errorf("editor logger output = %q", local.String())
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)
	if l := Logger(); l == nil || l.Enabled(context.Background(), slog.LevelError) {
		t.Errorf("SetLogger(nil) left %v", l)
	}
}

func TestSetLoggerRace(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				SetLogger(slog.Default())
				SetLogger(nil)
				return
			}
			Logger().Debug("stroke flushed", "segment", i)
		}()
	}
	wg.Wait()
}

func BenchmarkSilentLogger(b *testing.B) {
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("maskcanvas: frame", "dirty", 3)
	}
}
