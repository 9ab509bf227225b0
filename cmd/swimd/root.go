package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kestrelmesh/swim"
	"github.com/kestrelmesh/swim/internal/config"
	"github.com/kestrelmesh/swim/internal/netudp"
	"github.com/kestrelmesh/swim/internal/statusapi"
)

func newRootCmd() *cobra.Command {
	var (
		configPath   string
		memberID     string
		peerFlags    []string
		enableGossip bool
	)

	cmd := &cobra.Command{
		Use:   "swimd",
		Short: "Run one member of a SWIM failure-detection group",
		RunE: func(cmd *cobra.Command, args []string) error {
			if memberID == "" {
				return fmt.Errorf("--id is required")
			}
			peers, err := parsePeers(peerFlags)
			if err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), swim.MemberId(memberID), peers, cfg, enableGossip)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&memberID, "id", "", "this member's id")
	cmd.Flags().StringArrayVar(&peerFlags, "peer", nil, "peer as id=host:port, repeatable")
	cmd.Flags().BoolVar(&enableGossip, "gossip", true, "enable piggyback dissemination")

	return cmd
}

func parsePeers(flags []string) (map[swim.MemberId]string, error) {
	peers := make(map[swim.MemberId]string, len(flags))
	for _, f := range flags {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid --peer %q, want id=host:port", f)
		}
		peers[swim.MemberId(parts[0])] = parts[1]
	}
	return peers, nil
}

func run(ctx context.Context, id swim.MemberId, peers map[swim.MemberId]string, cfg config.Config, enableGossip bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logrus.StandardLogger().WithField("member_id", id)
	reg := prometheus.NewRegistry()

	transport, err := netudp.New(cfg.BindAddr, id, nil, log, reg)
	if err != nil {
		return err
	}
	remoteIDs := make([]swim.MemberId, 0, len(peers))
	for peerID, addr := range peers {
		if err := transport.AddPeer(peerID, addr); err != nil {
			return err
		}
		remoteIDs = append(remoteIDs, peerID)
	}

	router := swim.NewRouter(transport, log)
	membership := swim.NewMembership(id, remoteIDs, router, cfg.Config, enableGossip)
	membership.Start()

	statusSrv := &http.Server{
		Addr:    cfg.StatusAddr,
		Handler: statusapi.NewRouter(membership, reg),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return transport.Run(ctx) })
	g.Go(func() error { return runTickLoop(ctx, membership, cfg.T) })
	g.Go(func() error {
		log.WithField("addr", cfg.StatusAddr).Info("swimd: status server listening")
		if err := statusSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return statusSrv.Close()
	})

	return g.Wait()
}

// runTickLoop drives membership.Tick every period until ctx is canceled,
// mirroring the teacher's runTick goroutine.
func runTickLoop(ctx context.Context, membership *swim.Membership, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			membership.Tick(now)
		}
	}
}
