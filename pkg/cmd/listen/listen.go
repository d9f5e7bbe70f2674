// Package listen implements the capture loop: UDP receiver, decoder, store
// and exporter wired together on a fixed drain cadence.
package listen

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/overtake/league-capture/log"
	"github.com/overtake/league-capture/pkg/config"
	"github.com/overtake/league-capture/pkg/export"
	"github.com/overtake/league-capture/pkg/lookup"
	"github.com/overtake/league-capture/pkg/packets"
	"github.com/overtake/league-capture/pkg/processing/store"
	"github.com/overtake/league-capture/pkg/receiver"
)

func NewListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "captures telemetry and exports the league result document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.ListenAddr,
		"addr",
		"0.0.0.0:20777",
		"UDP address the game sends telemetry to")
	cmd.Flags().IntVar(&config.ForwardPort,
		"forward-port",
		0,
		"local UDP port to relay raw packets to (0 disables)")
	cmd.Flags().StringVar(&config.RelayNatsURL,
		"relay-nats-url",
		"",
		"NATS url to relay raw packets to (empty disables)")
	cmd.Flags().StringVar(&config.RelayNatsSubject,
		"relay-nats-subject",
		"telemetry.raw",
		"NATS subject for the raw packet relay")
	cmd.Flags().StringVar(&config.OutputDir,
		"output-dir",
		".",
		"directory for exported result documents")
	cmd.Flags().BoolVar(&config.AutoExport,
		"auto-export",
		true,
		"export automatically when a race session ends")
	cmd.Flags().DurationVar(&config.DrainInterval,
		"drain-interval",
		20*time.Millisecond,
		"cadence for draining the packet queue")
	cmd.Flags().StringVar(&config.LogLevel,
		"logLevel",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.LogFormat,
		"logFormat",
		"text",
		"controls the log output format")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func setupLogger() {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	log.ResetDefault(logger)
}

// capture drains the receive queue on a fixed cadence, feeding the store
// and triggering the auto export when a race session ends.
type capture struct {
	recv *receiver.Receiver
	st   *store.SessionStore
	exp  *export.Exporter

	currentSessionType int
	sessionEndDetected bool
	exported           bool
}

func runCapture(ctx context.Context) error {
	setupLogger()

	log.Info("starting capture",
		log.String("addr", config.ListenAddr),
		log.String("outputDir", config.OutputDir))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	recvOpts := []receiver.Option{receiver.WithForwardPort(config.ForwardPort)}
	if config.RelayNatsURL != "" {
		recvOpts = append(recvOpts,
			receiver.WithNatsRelay(config.RelayNatsURL, config.RelayNatsSubject))
	}
	c := &capture{
		recv:               receiver.New(config.ListenAddr, recvOpts...),
		st:                 store.New(),
		exp:                export.New(config.OutputDir),
		currentSessionType: -1,
	}

	if err := c.recv.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(config.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return c.shutdown()
		case <-ticker.C:
			c.drain()
			if c.sessionEndDetected && config.AutoExport && len(c.st.Sessions) > 0 {
				c.sessionEndDetected = false
				if _, err := c.exp.Write(c.st); err != nil {
					log.Error("auto export failed", log.ErrorField(err))
				} else {
					c.exported = true
				}
			}
		}
	}
}

// drain empties the queue, decoding and ingesting synchronously.
func (c *capture) drain() {
	for {
		raw, ok := c.recv.Queue().Dequeue()
		if !ok {
			return
		}
		parsed := packets.Dispatch(raw)
		if parsed == nil {
			continue
		}

		if parsed.Session != nil {
			c.currentSessionType = parsed.Session.SessionType
		}

		c.st.Ingest(parsed)

		if parsed.Event != nil {
			switch parsed.Event.Code {
			case packets.CodeSessionEnd:
				if isTerminalSession(c.currentSessionType) {
					c.sessionEndDetected = true
				}
			case packets.CodeSessionStart:
				c.exported = false
			}
		}
	}
}

// shutdown exports whatever was captured unless the auto export already
// covered it.
func (c *capture) shutdown() error {
	log.Info("shutting down",
		log.Int64("packetsReceived", c.recv.PacketsReceived()))
	c.drain()
	if len(c.st.Sessions) == 0 {
		log.Info("nothing captured, skipping export")
		return nil
	}
	if c.exported {
		return nil
	}
	path, err := c.exp.Write(c.st)
	if err != nil {
		log.Error("final export failed", log.ErrorField(err))
		return err
	}
	log.Info("capture written", log.String("path", path))
	return nil
}

// isTerminalSession reports whether a session type ends the event (race
// segments only; practice and qualifying roll into later sessions).
func isTerminalSession(sessionType int) bool {
	name, ok := lookup.SessionType[sessionType]
	if !ok {
		return false
	}
	return name == "Race" || name == "Race2" || name == "Sprint"
}
