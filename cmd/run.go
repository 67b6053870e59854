package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jamesmacaulay/backfire/internal/backpack"
	"github.com/jamesmacaulay/backfire/internal/bot"
	"github.com/jamesmacaulay/backfire/internal/campfire"
	"github.com/jamesmacaulay/backfire/internal/checkpoint"
	"github.com/jamesmacaulay/backfire/internal/observability"
)

var resetCheckpoint bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Log in, find the room, and start the polling loop",
	RunE:  runBot,
}

func init() {
	runCmd.Flags().BoolVar(&resetCheckpoint, "reset-checkpoint", false,
		"forget the last-updated-at checkpoint before starting")
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadedCfg
	logger := observability.GetLogger()

	checkpoints := checkpoint.NewStore(cfg.Checkpoint.Path)
	if resetCheckpoint {
		if err := checkpoints.Clear(); err != nil {
			return err
		}
		logger.Info("checkpoint cleared", zap.String("path", cfg.Checkpoint.Path))
	}

	opts := []campfire.Option{
		campfire.WithLogger(logger),
		campfire.WithTimeout(cfg.Network.Timeout),
	}
	if cfg.Campfire.SSL {
		opts = append(opts, campfire.WithSSL())
	}
	if cfg.Campfire.Proxy.Enabled() {
		proxy := cfg.Campfire.Proxy
		opts = append(opts, campfire.WithProxy(proxy.Host, proxy.Port, proxy.User, proxy.Password))
	}

	session := campfire.New(cfg.Campfire.Subdomain, opts...)
	if err := session.Login(ctx, cfg.Campfire.Login, cfg.Campfire.Password); err != nil {
		return err
	}
	defer func() {
		// The run context is already cancelled by the time we get here.
		logoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if ok, err := session.Logout(logoutCtx); err != nil || !ok {
			logger.Warn("logout failed", zap.Error(err))
		}
	}()

	room, err := session.FindOrCreateRoomByName(ctx, cfg.Campfire.Room)
	if err != nil {
		return err
	}
	if room == nil {
		return fmt.Errorf("room %q not found and could not be created", cfg.Campfire.Room)
	}
	logger.Info("joined room", zap.Int("id", room.ID), zap.String("name", room.Name))

	backpackOpts := []backpack.ClientOption{
		backpack.WithLogger(logger),
		backpack.WithTimeout(cfg.Network.Timeout),
	}
	if cfg.Backpack.SSL {
		backpackOpts = append(backpackOpts, backpack.WithSSL())
	}
	journal := backpack.NewClient(cfg.Backpack.Subdomain, cfg.Backpack.Token, backpackOpts...)

	b := bot.New(room, journal, checkpoints, bot.Config{
		Interval: cfg.Global.Interval,
		TestMode: cfg.Campfire.TestMode,
	}, logger)
	return b.Run(ctx)
}
