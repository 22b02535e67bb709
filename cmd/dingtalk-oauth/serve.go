package main

import (
	"github.com/brizzai/dingtalk-oauth/internal/auth"
	"github.com/brizzai/dingtalk-oauth/internal/auth/state"
	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/brizzai/dingtalk-oauth/internal/logger"
	"github.com/brizzai/dingtalk-oauth/internal/requester"
	"github.com/brizzai/dingtalk-oauth/internal/server"
	"github.com/brizzai/dingtalk-oauth/internal/token"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the authorize and callback endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Info("Starting dingtalk-oauth",
				zap.String("version", config.GetVersionInfo()),
				zap.String("api", cfg.API.BaseURL),
				zap.String("state_backend", string(cfg.State.Backend)),
				zap.String("exchange", string(cfg.Server.Exchange)),
			)

			app := fx.New(
				fx.Supply(cfg),
				fx.WithLogger(logger.FxLogger),
				logger.Module,
				requester.Module,
				token.Module,
				state.Module,
				auth.Module,
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}

	cmd.Flags().String("server.host", "", "Address to listen on")
	cmd.Flags().Int("server.port", config.DefaultPort, "Port to listen on")
	return cmd
}
