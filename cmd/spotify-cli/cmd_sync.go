package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/gesellix/spotify-core/pkg/librarysync"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "synchronize the local collection and playlist cache against spclient",
		Subcommands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run a full sync of every collection set and the rootlist playlist tree once",
				Action: syncRunAction,
			},
			{
				Name:   "watch",
				Usage:  "run a full sync, then keep the cache warm from dealer invalidation events",
				Action: syncWatchAction,
			},
		},
	}
}

// newLibrarySync constructs a Sync engine wired to spclient and the
// on-disk store under cfg.LibraryDir.
func newLibrarySync() (*librarysync.Sync, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	authc, err := buildAuthComponents(cfg)
	if err != nil {
		return nil, err
	}
	spc := buildSpclient(cfg, authc.Provider)

	username, _, ok := authc.Store.StoredCredential()
	if !ok {
		return nil, fmt.Errorf("no stored credential; run 'login store-credential' first")
	}

	store, err := librarysync.NewStore(cfg.LibraryDir)
	if err != nil {
		return nil, fmt.Errorf("open library store: %w", err)
	}

	return librarysync.NewSync(spc, store, username, nil), nil
}

func syncRunAction(c *cli.Context) error {
	ctx := context.Background()
	sync, err := newLibrarySync()
	if err != nil {
		return err
	}

	if err := sync.SyncAll(ctx); err != nil {
		return fmt.Errorf("sync collections: %w", err)
	}
	if err := sync.SyncPlaylists(ctx); err != nil {
		return fmt.Errorf("sync playlists: %w", err)
	}

	progress := sync.Progress()
	printSuccess("sync complete: %d sets, %d items", progress.SetsTotal, progress.ItemsSynced)
	return nil
}

func syncWatchAction(c *cli.Context) error {
	ctx, stop := interruptContext(context.Background())
	defer stop()

	sync, err := newLibrarySync()
	if err != nil {
		return err
	}

	if err := sync.SyncAll(ctx); err != nil {
		return fmt.Errorf("sync collections: %w", err)
	}
	if err := sync.SyncPlaylists(ctx); err != nil {
		return fmt.Errorf("sync playlists: %w", err)
	}
	printSuccess("initial sync complete, watching for dealer invalidation")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := buildDealerClient(cfg)
	defer client.Dispose()

	messages := client.Messages()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect dealer: %w", err)
	}

	go sync.Subscribe(ctx, messages)

	<-ctx.Done()
	client.Disconnect()
	return nil
}
