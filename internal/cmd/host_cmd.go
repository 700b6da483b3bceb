package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stobo-app/pilot/internal/action"
	"github.com/stobo-app/pilot/internal/protocol"
)

var hostCmd = &cobra.Command{
	Use:   "host [app-name]",
	Short: "advertise this device and wait for a controller",
	Long: `advertises this device on the local network under app-name (PILOT_APP_NAME by default)
			and exposes a few demo actions to the controller that connects`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		appName := rt.cfg.AppName
		if len(args) == 1 {
			appName = args[0]
		}

		target := action.NewTarget(rt.manager, action.NewRegistry(), rt.log)
		rt.manager.OnReady(func() {
			rt.log.Info("Controller connected")
		})
		rt.manager.OnLost(func() {
			rt.log.Info("Controller left")
		})
		rt.manager.OnError(func(err error) {
			rt.log.WithError(err).Error("Hosting stopped")
			stop()
		})

		done := rt.start(ctx)
		target.Register(demoActions(rt)...)
		if err := rt.manager.StartHosting(appName); err != nil {
			stop()
			<-done
			return err
		}

		<-ctx.Done()
		<-done
		rt.log.Info("Exiting...")
		return nil
	},
}

func demoActions(rt *runtime) []action.Action {
	logKind := func(name string) func(protocol.ActionKind) func() {
		return func(kind protocol.ActionKind) func() {
			return func() { rt.log.Infof("%s: %s", name, kind) }
		}
	}

	lights := logKind("Lights")
	music := logKind("Music")
	return []action.Action{
		action.NewFunc("Lights", "Dim the stage lights", lights(protocol.ActionPlay), lights(protocol.ActionPause)),
		action.NewFunc("Music", "Start the background track", music(protocol.ActionPlay), music(protocol.ActionPause)),
		action.NewFunc("Curtain", "Open the curtain", logKind("Curtain")(protocol.ActionPlay), nil),
	}
}
