package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/studio/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	apiURL := flag.String("api", "", "generation service address, e.g. http://127.0.0.1:8011 (optional)")
	pollMillis := flag.Int("poll", 0, "status poll interval in milliseconds (optional, defaults to 1500)")
	debug := flag.Bool("debug", false, "write debug records to the session log")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		APIURL:     *apiURL,
		Debug:      *debug,
	}
	if poll := *pollMillis; poll > 0 {
		opts.PollMillis = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "studio: %v\n", err)
		return 1
	}
	return 0
}
