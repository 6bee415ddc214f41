// Command cleanplate decomposes photographs: it traces segmentation masks
// into outlines, cuts outlined elements into transparent sprites, and
// removes regions from a photograph while reconstructing the background
// behind them.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/plateworks/cleanplate/internal/config"
	"github.com/plateworks/cleanplate/internal/monitoring"
	"github.com/plateworks/cleanplate/internal/version"
)

var commands = []struct {
	name    string
	summary string
	run     func(cfg *config.TuningConfig, args []string) error
}{
	{"trace", "extract the boundary polygon of a mask image", runTrace},
	{"rasterize", "fill a polygon into a mask PNG", runRasterize},
	{"cutout", "cut outlined elements into transparent sprites", runCutout},
	{"profile", "classify a photograph's background", runProfile},
	{"remove", "erase outlined regions and fill the holes", runRemove},
	{"scene", "assemble a full scene: sprites plus clean plate", runScene},
	{"runs", "list or inspect recorded pipeline runs", runRuns},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: cleanplate [-config file.json] [-quiet] <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(os.Stderr, "\nRun 'cleanplate <command> -h' for command flags.\n")
}

func main() {
	configPath := flag.String("config", "", "tuning config JSON file")
	quiet := flag.Bool("quiet", false, "suppress progress logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("cleanplate %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *quiet {
		monitoring.SetLogger(nil)
	}

	path := *configPath
	if path == "" {
		if path = config.FindConfig(); path != "" {
			monitoring.Logf("[config] using %s", path)
		}
	}
	cfg := config.EmptyTuningConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadTuningConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cleanplate: %v\n", err)
			os.Exit(1)
		}
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		if err := c.run(cfg, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "cleanplate %s: %v\n", c.name, err)
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "cleanplate: unknown command %q\n\n", args[0])
	usage()
	os.Exit(1)
}
