package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/stobo-app/pilot/internal/peer"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "list apps advertised on the local network",
	Long:  `browses the local network for a while and prints every app found`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Discovering"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)

		rt.manager.OnPeersChanged(func(peers []peer.Identity) {
			bar.Describe(fmt.Sprintf("Discovering (%d found)", len(peers)))
		})
		failed := make(chan error, 1)
		rt.manager.OnError(func(err error) {
			select {
			case failed <- err:
			default:
			}
		})

		runCtx, cancel := context.WithCancel(ctx)
		done := rt.start(runCtx)
		defer func() {
			cancel()
			<-done
		}()

		if err := rt.manager.StartDiscovering(); err != nil {
			return err
		}

		deadline := time.After(discoverTimeout)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

	wait:
		for {
			select {
			case <-ticker.C:
				_ = bar.Add(1)
			case err := <-failed:
				_ = bar.Finish()
				return fmt.Errorf("discovery failed: %w", err)
			case <-deadline:
				break wait
			case <-ctx.Done():
				break wait
			}
		}
		_ = bar.Finish()

		printPeers(cmd, rt.manager.Peers())
		return nil
	},
}

func printPeers(cmd *cobra.Command, peers []peer.Identity) {
	if len(peers) == 0 {
		cmd.Println("No apps found")
		return
	}
	for i, p := range peers {
		cmd.Printf("%d) %s\n", i+1, formatPeer(p))
	}
}

func formatPeer(p peer.Identity) string {
	return fmt.Sprintf("%s [%s]", p.DisplayName(), p.Address)
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 5*time.Second, "how long to browse")
}
