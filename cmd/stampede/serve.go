package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/stampede-db/stampede/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mutation API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		eng, cfg, err := connectEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewServer(eng),
			ReadHeaderTimeout: 5 * time.Second,
		}

		fmt.Printf("stampede listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
