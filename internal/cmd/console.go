package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/action"
	"github.com/stobo-app/pilot/internal/protocol"
	"github.com/stobo-app/pilot/internal/session"
)

var (
	ErrUsage         = errors.New("wrong number of arguments")
	ErrNoSuchPeer    = errors.New("no such peer, run peers first")
	ErrNoSuchAction  = errors.New("no such action, run request first")
	ErrNotController = errors.New("only a controller can trigger actions, run discover first")
	ErrNotConnected  = errors.New("not connected")
)

type role int32

const (
	roleNone role = iota
	roleTarget
	roleController
)

// console holds the state of an interactive session. A console is a target
// while hosting and a controller after discovering.
type console struct {
	mgr     *session.Manager
	appName string
	role    atomic.Int32

	target *action.Target
	ctrl   *action.Controller
}

// gatedSession only delivers messages while enabled returns true.
type gatedSession struct {
	*session.Manager
	enabled func() bool
}

func (g gatedSession) OnMessage(fn func(protocol.Message)) {
	g.Manager.OnMessage(func(msg protocol.Message) {
		if g.enabled() {
			fn(msg)
		}
	})
}

func newConsole(mgr *session.Manager, appName string, log *logrus.Logger, actions ...action.Action) *console {
	c := &console{mgr: mgr, appName: appName}
	c.target = action.NewTarget(gatedSession{mgr, c.is(roleTarget)}, action.NewRegistry(), log)
	c.ctrl = action.NewController(gatedSession{mgr, c.is(roleController)}, log)
	c.target.Registry().Register(actions...)
	return c
}

func (c *console) is(r role) func() bool {
	return func() bool { return role(c.role.Load()) == r }
}

func (c *console) host(args []string) (string, error) {
	if len(args) > 1 {
		return "", ErrUsage
	}
	name := c.appName
	if len(args) == 1 {
		name = args[0]
	}
	if err := c.mgr.StartHosting(name); err != nil {
		return "", err
	}
	c.role.Store(int32(roleTarget))
	return fmt.Sprintf("Hosting %q on device %s", name, c.mgr.DeviceID()), nil
}

func (c *console) discover() (string, error) {
	if err := c.mgr.StartDiscovering(); err != nil {
		return "", err
	}
	c.role.Store(int32(roleController))
	return "Discovering, run peers to list what was found", nil
}

func (c *console) peers() string {
	peers := c.mgr.Peers()
	if len(peers) == 0 {
		return "No apps found"
	}
	lines := make([]string, 0, len(peers))
	for i, p := range peers {
		lines = append(lines, fmt.Sprintf("%d) %s", i+1, formatPeer(p)))
	}
	return strings.Join(lines, "\n")
}

func (c *console) connect(args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrUsage
	}
	peers := c.mgr.Peers()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(peers) {
		return "", ErrNoSuchPeer
	}

	p := peers[n-1]
	if err := c.mgr.Connect(p); err != nil {
		return "", err
	}
	return fmt.Sprintf("Connecting to %s", p.DisplayName()), nil
}

func (c *console) request() (string, error) {
	if role(c.role.Load()) != roleController {
		return "", ErrNotController
	}
	if c.mgr.Mode() != session.ModeConnected {
		return "", ErrNotConnected
	}
	c.ctrl.RequestDescriptors()
	return "Requested actions, run actions to list them", nil
}

func (c *console) actions() string {
	var descs []protocol.Descriptor
	if role(c.role.Load()) == roleTarget {
		descs = c.target.Registry().Descriptors()
	} else {
		descs = c.ctrl.Descriptors()
	}
	if len(descs) == 0 {
		return "No actions"
	}

	lines := make([]string, 0, len(descs))
	for i, d := range descs {
		lines = append(lines, fmt.Sprintf("%d) %s: %s [%s]", i+1, d.Name, d.Description, d.ID))
	}
	return strings.Join(lines, "\n")
}

// trigger plays or pauses the action named by a 1-based index into the
// last shared list or by its id.
func (c *console) trigger(args []string, kind protocol.ActionKind) (string, error) {
	if len(args) != 1 {
		return "", ErrUsage
	}
	if role(c.role.Load()) != roleController {
		return "", ErrNotController
	}

	id, err := c.resolveAction(args[0])
	if err != nil {
		return "", err
	}

	switch kind {
	case protocol.ActionPause:
		err = c.ctrl.Pause(id)
	default:
		err = c.ctrl.Play(id)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sent %s", kind), nil
}

func (c *console) resolveAction(arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}
	descs := c.ctrl.Descriptors()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(descs) {
		return uuid.Nil, ErrNoSuchAction
	}
	return descs[n-1].ID, nil
}

func (c *console) disconnect() string {
	c.mgr.Disconnect()
	return "Disconnected"
}

func (c *console) stop() string {
	c.mgr.StopAll()
	c.role.Store(int32(roleNone))
	return "Stopped"
}

func (c *console) mode() string {
	m := c.mgr.Mode()
	if label := c.mgr.ServiceLabel(); label != "" {
		return fmt.Sprintf("%s (%s)", m, label)
	}
	return m.String()
}
