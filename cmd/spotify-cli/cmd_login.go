package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/urfave/cli/v2"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "manage the stored login5 credential",
		Subcommands: []*cli.Command{
			{
				Name:  "store-credential",
				Usage: "persist a username/blob credential obtained out of band (e.g. zeroconf pairing)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "blob-base64", Required: true, Usage: "base64-encoded opaque credential blob"},
				},
				Action: storeCredentialAction,
			},
			{
				Name:   "token",
				Usage:  "exchange the stored credential for an access token and print it (redacted)",
				Action: tokenAction,
			},
		},
	}
}

func storeCredentialAction(c *cli.Context) error {
	username, err := requireArg(c, "username")
	if err != nil {
		return err
	}
	blobB64, err := requireArg(c, "blob-base64")
	if err != nil {
		return err
	}

	blob, err := base64.StdEncoding.DecodeString(blobB64)
	if err != nil {
		return fmt.Errorf("decode blob: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	auth, err := buildAuthComponents(cfg)
	if err != nil {
		return err
	}

	if err := auth.Store.SetCredential(username, blob); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	printSuccess("stored credential for %s in %s", username, cfg.CredentialsDir)
	return nil
}

func tokenAction(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	auth, err := buildAuthComponents(cfg)
	if err != nil {
		return err
	}

	if _, _, ok := auth.Store.StoredCredential(); !ok {
		return fmt.Errorf("no stored credential; run 'login store-credential' first")
	}

	token, err := auth.Provider.Token(context.Background())
	if err != nil {
		return fmt.Errorf("login5 exchange: %w", err)
	}

	fmt.Printf("Access token: %s\n", token.Redacted())
	fmt.Printf("Expires at:   %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}
