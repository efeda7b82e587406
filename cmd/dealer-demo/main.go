// Package main is a minimal demonstration of the dealer websocket
// client: connect, print every inbound message and connection-state
// transition, and exit cleanly on Ctrl+C or after a duration limit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gesellix/spotify-core/pkg/config"
	"github.com/gesellix/spotify-core/pkg/dealer"
	"github.com/gesellix/spotify-core/pkg/models"
)

func parseFilters(prefixFilter string) []string {
	if prefixFilter == "" {
		return nil
	}

	var filters []string
	for _, f := range strings.Split(prefixFilter, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			filters = append(filters, f)
		}
	}
	return filters
}

func matchesFilter(uri string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.HasPrefix(uri, f) {
			return true
		}
	}
	return false
}

func printHelp() {
	fmt.Println("dealer-demo connects to the Spotify dealer websocket and prints every inbound message.")
	fmt.Println()
	flag.PrintDefaults()
}

func main() {
	var (
		duration  = flag.Duration("duration", 0, "how long to listen for events (0 = infinite)")
		verbose   = flag.Bool("verbose", false, "log heartbeat and reconnect activity, not just inbound messages")
		uriFilter = flag.String("filter", "", "comma-separated URI prefixes to print (e.g. hm://collection,hm://playlist)")
		help      = flag.Bool("help", false, "show help")
	)
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	filters := parseFilters(*uriFilter)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	dcfg := dealer.DefaultClientConfig()
	if *verbose {
		dcfg.Logger = verboseLogger{}
	}

	resolver := func(_ context.Context) ([]string, error) {
		if len(cfg.DealerEndpoints) == 0 {
			return nil, fmt.Errorf("no dealer endpoints configured; set DEALER_ENDPOINTS")
		}
		return cfg.DealerEndpoints, nil
	}

	client := dealer.NewClient(resolver, dcfg)
	defer client.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *duration > 0 {
		go func() {
			select {
			case <-time.After(*duration):
				fmt.Println("\nDuration limit reached, shutting down...")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			fmt.Printf("\nReceived signal %v, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	states := client.ConnectionState()
	messages := client.Messages()

	fmt.Println("Connecting to dealer...")
	if err := client.Connect(ctx); err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}

	if len(filters) > 0 {
		fmt.Printf("Filtering on prefixes: %v\n", filters)
	}
	fmt.Println("Listening for events, press Ctrl+C to stop")

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case s := <-states:
			fmt.Printf("[connection] %s\n", s)
		case msg := <-messages:
			if matchesFilter(msg.URI, filters) {
				printMessage(msg)
			}
		}
	}

	fmt.Println("Disconnecting...")
	client.Disconnect()
	fmt.Println("Disconnected successfully")
}

func printMessage(msg models.DealerMessage) {
	fmt.Printf("[message] %s (%d bytes)\n", msg.URI, len(msg.Payload))
	if len(msg.Headers) > 0 {
		fmt.Printf("           headers: %v\n", msg.Headers)
	}
}

type verboseLogger struct{}

func (verboseLogger) Printf(format string, v ...interface{}) {
	fmt.Printf("[dealer] "+format+"\n", v...)
}
