// Command run-tests is the certification-tool CLI entrypoint: it
// connects to a running test harness's event stream and drives the
// interactive prompt/video/webrtc verification flows until the run
// reaches a terminal state. The REST/PICS/project subcommand surface
// is named but not wired up here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/project-chip/certification-tool-cli/internal/colorize"
	appconfig "github.com/project-chip/certification-tool-cli/internal/config"
	"github.com/project-chip/certification-tool-cli/internal/logging"
	"github.com/project-chip/certification-tool-cli/internal/prompt"
	"github.com/project-chip/certification-tool-cli/internal/session"
	"github.com/project-chip/certification-tool-cli/internal/webrtcpeer"
)

type cliFlags struct {
	hostname string
	noColor  bool
	debug    bool
	command  string
}

func parseFlags() *cliFlags {
	f := &cliFlags{}
	flag.StringVar(&f.hostname, "hostname", "", "harness hostname (overrides config)")
	flag.BoolVar(&f.noColor, "no-color", false, "disable colorized output")
	flag.BoolVar(&f.debug, "debug", false, "enable debug logging")
	flag.Parse()

	f.command = "run-tests"
	if args := flag.Args(); len(args) > 0 {
		f.command = args[0]
	}
	return f
}

// outOfScopeCommands names CLI subcommands that need the REST client,
// which is not wired up in this build.
var outOfScopeCommands = map[string]bool{
	"test-run-execution": true,
	"test-runner-status": true,
	"abort-testing":      true,
}

func main() {
	flags := parseFlags()

	if outOfScopeCommands[flags.command] {
		fmt.Fprintf(os.Stderr, "%q requires the harness REST client, which is not available in this build\n", flags.command)
		os.Exit(1)
	}

	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if flags.hostname != "" {
		cfg.Hostname = flags.hostname
	}
	if flags.noColor {
		cfg.NoColor = true
	}
	colorize.SetEnabled(!cfg.NoColor)

	logger, err := logging.New(logging.Options{
		FilePath: logFilePath(cfg.LogDir),
		Debug:    flags.debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Infow("shutdown signal received")
		cancel()
	}()

	iceServers := make([]webrtcpeer.ICEServer, 0, len(cfg.STUNServers))
	for _, url := range cfg.STUNServers {
		iceServers = append(iceServers, webrtcpeer.ICEServer{URLs: []string{url}})
	}

	// The frozen Run tree (titles, public ids) is fetched once over REST
	// before the event stream opens; with no REST client wired in, the
	// controller grows its own tree on demand with blank titles/ids.
	controller := session.New(logger, nil, nil)

	dispatcher := prompt.NewDispatcher(prompt.Dependencies{
		Logger:         logger,
		Sender:         controller,
		Hostname:       cfg.Hostname,
		FFmpegPath:     cfg.FFmpegPath,
		VideoOutDir:    cfg.VideoOutputDir,
		VideoPort:      cfg.VideoServerPort,
		UploadURL:      fmt.Sprintf("http://%s/api/v1/upload", cfg.Hostname),
		STUNServers:    iceServers,
		DefaultTimeout: time.Duration(cfg.PromptDefaultTimeoutSeconds) * time.Second,
	})
	defer dispatcher.Close()
	controller.SetPromptHandler(dispatcher)

	if err := dispatcher.PrewarmWebRTC(ctx); err != nil {
		logger.Warnw("continuing without webrtc two-way-talk support", "error", err)
	}

	if err := controller.Connect(ctx, cfg.Hostname); err != nil {
		logger.Errorw("failed to connect to event stream", "error", err)
		os.Exit(1)
	}

	if err := controller.Serve(ctx); err != nil {
		logger.Errorw("session ended with error", "error", err)
		os.Exit(1)
	}
}

func logFilePath(dir string) string {
	if dir == "" {
		return ""
	}
	return dir + "/th-cli.log"
}
