package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/abiosoft/ishell/v2"
	"github.com/spf13/cobra"

	"github.com/stobo-app/pilot/internal/peer"
	"github.com/stobo-app/pilot/internal/protocol"
	"github.com/stobo-app/pilot/internal/session"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "interactive shell to host, discover and control",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		runCtx, cancel := context.WithCancel(ctx)
		done := rt.start(runCtx)
		defer func() {
			cancel()
			<-done
		}()

		shell := ishell.New()
		shell.SetHomeHistoryPath(".pilot_history")
		shell.Printf("Pilot Interactive Shell, device %s\n", rt.deviceID)

		c := newConsole(rt.manager, rt.cfg.AppName, rt.log, demoActions(rt)...)
		addConsoleCmds(shell, c)

		rt.manager.OnModeChanged(func(m session.Mode) { shell.Println("mode:", m) })
		rt.manager.OnPeersChanged(func(p []peer.Identity) { shell.Printf("%d apps found\n", len(p)) })
		rt.manager.OnReady(func() { shell.Println("connection ready") })
		rt.manager.OnFailed(func(err error) { shell.Println("connection failed:", err) })
		rt.manager.OnError(func(err error) { shell.Println("error:", err) })
		c.ctrl.OnDescriptors(func(d []protocol.Descriptor) { shell.Printf("%d actions available\n", len(d)) })

		shell.Interrupt(func(ic *ishell.Context, count int, input string) {
			if count >= 2 {
				ic.Stop()
				return
			}
			ic.Println("Input Ctrl-c once more to exit")
		})

		go func() {
			<-ctx.Done()
			shell.Stop()
		}()

		shell.Run()
		rt.manager.StopAll()
		return nil
	},
}

func addConsoleCmds(shell *ishell.Shell, c *console) {
	withArgs := func(fn func([]string) (string, error)) func(*ishell.Context) {
		return func(ic *ishell.Context) {
			out, err := fn(ic.Args)
			if err != nil {
				ic.Println("error:", err)
				return
			}
			ic.Println(out)
		}
	}
	noArgs := func(fn func() string) func(*ishell.Context) {
		return func(ic *ishell.Context) { ic.Println(fn()) }
	}

	shell.AddCmd(&ishell.Cmd{Name: "host", Help: "host [app-name]: advertise this device", Func: withArgs(c.host)})
	shell.AddCmd(&ishell.Cmd{Name: "discover", Help: "browse for apps", Func: withArgs(func([]string) (string, error) { return c.discover() })})
	shell.AddCmd(&ishell.Cmd{Name: "peers", Help: "list discovered apps", Func: noArgs(c.peers)})
	shell.AddCmd(&ishell.Cmd{Name: "connect", Help: "connect <n>: connect to a discovered app", Func: withArgs(c.connect)})
	shell.AddCmd(&ishell.Cmd{Name: "request", Help: "ask the connected app for its actions", Func: withArgs(func([]string) (string, error) { return c.request() })})
	shell.AddCmd(&ishell.Cmd{Name: "actions", Help: "list known actions", Func: noArgs(c.actions)})
	shell.AddCmd(&ishell.Cmd{Name: "play", Help: "play <n|id>: play an action", Func: withArgs(func(a []string) (string, error) { return c.trigger(a, protocol.ActionPlay) })})
	shell.AddCmd(&ishell.Cmd{Name: "pause", Help: "pause <n|id>: pause an action", Func: withArgs(func(a []string) (string, error) { return c.trigger(a, protocol.ActionPause) })})
	shell.AddCmd(&ishell.Cmd{Name: "disconnect", Help: "leave the current connection", Func: noArgs(c.disconnect)})
	shell.AddCmd(&ishell.Cmd{Name: "stop", Help: "stop hosting or discovering", Func: noArgs(c.stop)})
	shell.AddCmd(&ishell.Cmd{Name: "mode", Help: "show the current mode", Func: noArgs(c.mode)})
}
