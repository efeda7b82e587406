package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/gesellix/spotify-core/pkg/models"
	"github.com/gesellix/spotify-core/pkg/playback"
)

func playbackCommand() *cli.Command {
	return &cli.Command{
		Name:  "playback",
		Usage: "track playback state reconciled from dealer cluster_update messages",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "connect to the dealer and print playback state on every change",
				Action: playbackStatusAction,
			},
		},
	}
}

func playbackStatusAction(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	authc, err := buildAuthComponents(cfg)
	if err != nil {
		return err
	}
	spc := buildSpclient(cfg, authc.Provider)

	manager := playback.NewStateManager(playback.Config{
		DeviceID:   cfg.SpotifyDeviceID,
		DeviceName: cfg.UserAgent,
	}, spc)
	defer manager.Dispose()

	client := buildDealerClient(cfg)
	defer client.Dispose()

	ctx, stop := interruptContext(context.Background())
	defer stop()

	connIDs := client.ConnectionID()
	messages := client.Messages()
	changes := manager.StateChanges()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			client.Disconnect()
			return nil
		case id := <-connIDs:
			manager.SetConnectionID(id)
		case msg := <-messages:
			handleDealerMessage(manager, msg)
		case state := <-changes:
			printPlaybackState(state)
		}
	}
}

func handleDealerMessage(manager *playback.StateManager, msg models.DealerMessage) {
	if !playback.IsClusterURI(msg.URI) {
		return
	}
	if err := manager.HandleClusterUpdate(msg.Payload); err != nil {
		printWarning("failed to decode cluster_update: %v", err)
	}
}

func printPlaybackState(state models.PlaybackState) {
	fmt.Printf("[playback] status=%s device=%s context=%s\n", state.Status, state.ActiveDeviceID, state.ContextURI)
	if state.Track != nil {
		fmt.Printf("           track=%s position=%dms\n", state.Track.URI, state.PositionMs)
	}
}
