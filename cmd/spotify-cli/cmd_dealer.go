package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/gesellix/spotify-core/pkg/models"
)

func dealerCommand() *cli.Command {
	return &cli.Command{
		Name:  "dealer",
		Usage: "connect to the dealer websocket and observe its traffic",
		Subcommands: []*cli.Command{
			{
				Name:   "connect",
				Usage:  "connect and hold the connection open until interrupted",
				Action: dealerConnectAction,
			},
			{
				Name:   "watch",
				Usage:  "connect and print every inbound message and connection-state change",
				Action: dealerWatchAction,
			},
		},
	}
}

func dealerConnectAction(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := buildDealerClient(cfg)
	defer client.Dispose()

	ctx, stop := interruptContext(context.Background())
	defer stop()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	printSuccess("dealer connected")

	<-ctx.Done()
	client.Disconnect()
	return nil
}

func dealerWatchAction(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := buildDealerClient(cfg)
	defer client.Dispose()

	ctx, stop := interruptContext(context.Background())
	defer stop()

	states := client.ConnectionState()
	messages := client.Messages()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			client.Disconnect()
			return nil
		case s := <-states:
			fmt.Printf("[connection] %s\n", s)
		case msg := <-messages:
			printMessage(msg)
		}
	}
}

func printMessage(msg models.DealerMessage) {
	fmt.Printf("[message] %s (%d bytes)\n", msg.URI, len(msg.Payload))
}
