// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command maskdemo paints a few strokes over an image headlessly and writes
// the resulting inpainting mask and a rendered view.
package main

import (
	"context"
	"flag"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/gogpu/maskcanvas"
)

func main() {
	var (
		imagePath  = flag.String("image", "", "source image (png, jpeg, gif, bmp, tiff, webp)")
		configPath = flag.String("config", "", "optional YAML config")
		output     = flag.String("out", "mask.png", "mask output file")
		viewOut    = flag.String("view", "", "optional rendered view output file")
		width      = flag.Float64("width", 800, "container width in CSS pixels")
		height     = flag.Float64("height", 600, "container height in CSS pixels")
		dpr        = flag.Float64("dpr", 1, "device pixel ratio")
		strokes    = flag.Int("strokes", 3, "number of demo strokes")
		zoom       = flag.Int("zoom", 0, "zoom-in steps before painting")
		undo       = flag.Bool("undo", false, "undo the last stroke before exporting")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *imagePath == "" {
		log.Fatal("-image is required")
	}
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	maskcanvas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := maskcanvas.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = maskcanvas.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	var exported []byte
	ct := maskcanvas.Container{Width: *width, Height: *height, DPR: *dpr}
	ed, err := maskcanvas.New(maskcanvas.FileSource(*imagePath), ct,
		func(data []byte) { exported = data },
		func() { log.Print("cancelled") },
		maskcanvas.WithConfig(cfg),
		maskcanvas.WithOnLowFPS(func(avg float64) { log.Printf("low frame rate: %.1f fps", avg) }),
	)
	if err != nil {
		log.Fatalf("Failed to create editor: %v", err)
	}
	defer ed.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ed.Open(ctx); err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	ed.Show()
	for range *zoom {
		ed.ZoomIn()
	}

	clock := time.Now()
	frame := func() {
		clock = clock.Add(16 * time.Millisecond)
		ed.Frame(clock)
	}
	for i := range *strokes {
		paintWave(ed, ct, i, *strokes, frame)
	}

	if *undo {
		if _, err := ed.Undo(ctx); err != nil {
			log.Fatalf("Undo failed: %v", err)
		}
		frame()
	}

	if err := ed.Complete(ctx); err != nil {
		log.Fatalf("Failed to export mask: %v", err)
	}
	if err := os.WriteFile(*output, exported, 0o644); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	if *viewOut != "" {
		img, err := ed.RenderView()
		if err != nil {
			log.Fatalf("Failed to render view: %v", err)
		}
		f, err := os.Create(*viewOut)
		if err != nil {
			log.Fatalf("Failed to save view: %v", err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			log.Fatalf("Failed to save view: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to save view: %v", err)
		}
	}

	st := ed.Stats()
	mask := ed.Mask()
	log.Printf("Mask saved to %s (%dx%d, %d pixels set, %d commands, %d checkpoints, %d offloaded calls)\n",
		*output, mask.Width(), mask.Height(), mask.CountOn(),
		st.History.Index, st.History.Checkpoints, st.Worker.Offloaded)
}

// paintWave drags a sine wave across the container, one band per stroke.
func paintWave(ed *maskcanvas.Editor, ct maskcanvas.Container, i, n int, frame func()) {
	r := ct.Ratio()
	w, h := ct.Width*r, ct.Height*r
	band := h / float64(n+1)
	y0 := band * float64(i+1)

	const samples = 48
	pt := func(k int) (float64, float64) {
		t := float64(k) / samples
		return w * (0.1 + 0.8*t), y0 + band*0.3*math.Sin(t*4*math.Pi)
	}

	x, y := pt(0)
	ed.PointerDown(maskcanvas.PointerEvent{ID: 1, Kind: maskcanvas.Mouse, X: x, Y: y})
	for k := 1; k < samples; k++ {
		x, y = pt(k)
		ed.PointerMove(maskcanvas.PointerEvent{ID: 1, Kind: maskcanvas.Mouse, X: x, Y: y})
		if k%4 == 0 {
			frame()
		}
	}
	x, y = pt(samples)
	ed.PointerUp(maskcanvas.PointerEvent{ID: 1, Kind: maskcanvas.Mouse, X: x, Y: y})
	frame()
}
