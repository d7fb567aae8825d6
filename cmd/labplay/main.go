// Package main provides a terminal player for reaction documents.
//
// Usage:
//
//	labplay [flags] reaction.yaml
//	labplay [flags] --library <name>
//
// Flags:
//
//	--config <file>     Playback config (YAML); CHEMLAB_* env vars override it
//	--library <name>    Play a document stored in the local library
//	--save <name>       Store the loaded document in the library under name
//	--list              List library documents and exit
//	--validate          Print authoring issues and exit
//	--speed <x>         Playback speed (overrides the saved setting)
//	--loop              Loop playback (overrides the saved setting)
//	--verbose           Enable logging to stderr
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

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/internal/ui"
	"github.com/gonewx/chemlab/pkg/config"
	"github.com/gonewx/chemlab/pkg/library"
	"github.com/gonewx/chemlab/pkg/player"
	"github.com/gonewx/chemlab/pkg/timeline"
	"github.com/quasilyte/gdata/v2"
)

// appName 所有 chemlab 工具共用的 gdata 存储命名空间
const appName = "chemlab"

var (
	configFlag   = flag.String("config", "", "Playback config file (YAML)")
	libraryFlag  = flag.String("library", "", "Play a document from the library by name")
	saveFlag     = flag.String("save", "", "Save the loaded document to the library under this name")
	listFlag     = flag.Bool("list", false, "List library documents and exit")
	validateFlag = flag.Bool("validate", false, "Print authoring issues and exit")
	speedFlag    = flag.Float64("speed", 1, "Playback speed")
	loopFlag     = flag.Bool("loop", false, "Loop playback")
	verboseFlag  = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: labplay [flags] <reaction.yaml>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadPlaybackConfig(*configFlag)
	if err != nil {
		fatalf("Error loading config: %v", err)
	}

	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[labplay] Warning: storage unavailable: %v (library is in-memory only)", err)
		manager = nil
	}

	lib, err := library.Open(manager)
	if err != nil {
		fatalf("Error opening library: %v", err)
	}

	if *listFlag {
		printLibrary(lib)
		return
	}

	doc, err := loadDocument(lib)
	if err != nil {
		fatalf("Error: %v", err)
	}

	if n := doc.NormalizeIDs(); n > 0 {
		log.Printf("[labplay] Assigned ids to %d apparatus", n)
	}

	issues := doc.Validate()
	if *validateFlag {
		for _, issue := range issues {
			fmt.Println(issue)
		}
		if len(issues) > 0 {
			os.Exit(1)
		}
		fmt.Println("no issues")
		return
	}
	for _, issue := range issues {
		log.Printf("[labplay] Warning: %s", issue)
	}

	if *saveFlag != "" {
		if err := lib.Save(*saveFlag, doc); err != nil {
			fatalf("Error saving document: %v", err)
		}
	}

	settings := library.NewSettingsStore(manager, cfg.Playback)
	cfg.Playback.Speed = settings.Settings().Speed
	cfg.Playback.Loop = settings.Settings().Loop
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "speed":
			cfg.Playback.Speed = *speedFlag
		case "loop":
			cfg.Playback.Loop = *loopFlag
		}
	})

	p := player.New(timeline.NewEngine(cfg.Engine), doc, cfg)
	p.Play()

	program := tea.NewProgram(ui.New(p, settings), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fatalf("Error: %v", err)
	}
}

// loadDocument 读取 --library 指定的文档或第一个参数指定的文件
func loadDocument(lib *library.Library) (*reaction.Document, error) {
	if *libraryFlag != "" {
		return lib.Load(*libraryFlag)
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	return reaction.ParseFile(flag.Arg(0))
}

func printLibrary(lib *library.Library) {
	entries := lib.Entries()
	if len(entries) == 0 {
		fmt.Println("library is empty")
		return
	}
	for _, e := range entries {
		fmt.Printf("%-24s %3d steps  %s  %s\n", e.Name, e.Steps, e.SavedAt.Local().Format("2006-01-02 15:04"), e.Title)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
