package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/gesellix/spotify-core/pkg/librarysync"
	"github.com/gesellix/spotify-core/pkg/playback"
	"github.com/gesellix/spotify-core/pkg/statusserver"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the local introspection server, connecting the dealer and library sync to feed it",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "tls", Usage: "serve over a self-signed local HTTPS certificate instead of plain HTTP"},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.StatusServerEnabled && !c.IsSet("tls") {
		printWarning("STATUS_SERVER_ENABLED is false in config; serving anyway since the command was run explicitly")
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

	username, _, _ := authc.Store.StoredCredential()
	store, err := librarysync.NewStore(cfg.LibraryDir)
	if err != nil {
		return fmt.Errorf("open library store: %w", err)
	}
	sync := librarysync.NewSync(spc, store, username, nil)

	client := buildDealerClient(cfg)
	defer client.Dispose()

	ctx, stop := interruptContext(context.Background())
	defer stop()

	tracker := newConnectionTracker()
	go tracker.watch(ctx, client.ConnectionState())

	connIDs := client.ConnectionID()
	messages := client.Messages()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case id := <-connIDs:
				manager.SetConnectionID(id)
			case msg := <-messages:
				handleDealerMessage(manager, msg)
			}
		}
	}()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect dealer: %w", err)
	}
	defer client.Disconnect()

	srv := statusserver.NewServer()
	srv.SetConnectionSource(tracker)
	srv.SetPlaybackSource(playbackSnapshotter{manager: manager})
	srv.SetSyncSource(sync)

	httpServer := &http.Server{Addr: cfg.StatusServerAddr, Handler: srv.Router()}

	if c.Bool("tls") {
		certsDir := filepath.Join(cfg.CredentialsDir, "..", "statusserver-certs")
		certs := statusserver.NewDevCertManager(certsDir)
		tlsConfig, err := certs.TLSConfig([]string{"localhost", "127.0.0.1"})
		if err != nil {
			return fmt.Errorf("generate dev certificate: %w", err)
		}
		httpServer.TLSConfig = tlsConfig

		go func() {
			printSuccess("introspection server listening on https://%s", cfg.StatusServerAddr)
			if err := httpServer.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
				printWarning("status server stopped: %v", err)
			}
		}()
	} else {
		go func() {
			printSuccess("introspection server listening on http://%s", cfg.StatusServerAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				printWarning("status server stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
