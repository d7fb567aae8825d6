// Package main provides a 2D viewer for reaction documents.
//
// Usage:
//
//	labviewer [flags] reaction.yaml
//
// Flags:
//
//	--config <file>   Playback config (YAML); CHEMLAB_* env vars override it
//	--watch           Reload the document when the file changes (default on)
//	--paused          Start paused
//	--verbose         Enable verbose logging (default off)
//
// Controls:
//
//	Space        - Play/pause
//	Left/Right   - Seek 5%
//	N / P        - Next/previous step
//	+ / -        - Speed up/down
//	L            - Toggle loop
//	R            - Restart
//	Q/Escape     - Quit
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/internal/watch"
	"github.com/gonewx/chemlab/pkg/config"
	"github.com/gonewx/chemlab/pkg/player"
	"github.com/gonewx/chemlab/pkg/timeline"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	configFlag  = flag.String("config", "", "Playback config file (YAML)")
	watchFlag   = flag.Bool("watch", true, "Reload the document when the file changes")
	pausedFlag  = flag.Bool("paused", false, "Start paused")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: labviewer [flags] <reaction.yaml>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadPlaybackConfig(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	doc, err := reaction.ParseFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	doc.NormalizeIDs()
	for _, issue := range doc.Validate() {
		log.Printf("[labviewer] Warning: %s", issue)
	}

	p := player.New(timeline.NewEngine(cfg.Engine), doc, cfg)
	if !*pausedFlag {
		p.Play()
	}

	var w *watch.Watcher
	if *watchFlag {
		w, err = watch.New(path)
		if err != nil {
			log.Printf("[labviewer] Warning: live reload disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("chemlab - " + doc.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Playback.TickRate)

	if err := ebiten.RunGame(NewViewer(p, w)); err != nil {
		log.Fatal(err)
	}
}
