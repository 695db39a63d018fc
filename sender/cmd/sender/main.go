package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/HampusRydin/vision-scroll-select-stream/internal/logger"
	"github.com/HampusRydin/vision-scroll-select-stream/pkg/detection"
	"github.com/HampusRydin/vision-scroll-select-stream/sender/internal/config"
	"github.com/HampusRydin/vision-scroll-select-stream/sender/internal/sender"
)

func main() {
	configPath := flag.String("config", "", "path to sender config file; empty uses built-in defaults")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the config")
	endpoint := flag.String("endpoint", "", "override the target endpoint")
	count := flag.Int("count", 0, "number of events to send (overrides config)")
	interval := flag.Duration("interval", 0, "pause after each successful send (overrides config)")
	interactive := flag.Bool("interactive", true, "prompt for count, interval and endpoint")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file %q: %v\n", *envFile, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	sc := cfg.Sender
	if set["endpoint"] {
		sc.Endpoint = *endpoint
	}
	if set["count"] {
		sc.Count = *count
	}
	if set["interval"] {
		sc.Interval = *interval
	}

	// Progress goes to stdout; structured logs stay on stderr.
	slog.SetDefault(logger.New(sc.LogLevel, "text", os.Stderr))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, sc, *interactive, os.Stdin, os.Stdout) }()

	select {
	case <-ctx.Done():
		fmt.Println("\nOperation cancelled by user.")
	case err := <-done:
		if errors.Is(err, sender.ErrInvalidInput) {
			fmt.Println("Please enter valid numbers for count and interval.")
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
}

// run drives one session. Only answers that fail to parse at the count or
// interval prompt are reported as sender.ErrInvalidInput.
func run(ctx context.Context, sc config.SenderConfig, interactive bool, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Detection Event Sender")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintf(out, "Target API endpoint: %s\n", sc.Endpoint)

	prompt := sender.NewPrompter(in, out)
	if interactive {
		var err error
		if sc.Count, err = prompt.Int("Number of events to send", sc.Count); err != nil {
			return err
		}
		if sc.Interval, err = prompt.Duration("Interval between events in seconds", sc.Interval); err != nil {
			return err
		}
		if sc.Endpoint, err = prompt.String("Endpoint", sc.Endpoint); err != nil {
			return err
		}
	}
	if err := config.Validate(sc); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	gen := detection.NewGenerator(sc.FeedIDs)
	s := sender.New(sc.Endpoint, gen,
		sender.WithHTTPClient(&http.Client{Timeout: sc.Timeout}),
		sender.WithOutput(out),
	)

	res := s.Simulate(ctx, sc.Count, sc.Interval)

	// One retry round, offered only to a person at the prompt.
	if res.Failed > 0 && !res.Cancelled && interactive {
		fmt.Fprintf(out, "%d of %d events failed.\n", res.Failed, res.Sent+res.Failed)
		retry, err := prompt.Confirm("Retry?")
		if err != nil {
			return err
		}
		if retry {
			res = s.Simulate(ctx, res.Failed, sc.Interval)
		}
	}
	if res.Failed > 0 {
		slog.Warn("some detection events were not delivered", "failed", res.Failed, "sent", res.Sent)
	}
	return nil
}
