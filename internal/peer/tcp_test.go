package peer

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stobo-app/pilot/internal/protocol"
	"github.com/stobo-app/pilot/internal/transport"
)

func TestConnectionOverLoopbackTCP(t *testing.T) {
	opts := testOptions()
	network := transport.NewLAN(transport.Config{ListenAddr: "127.0.0.1:0"}, opts.Logger)

	ln, err := network.Listen(context.Background())
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	loop := startLoop(t)
	hostRec, clientRec := newRecorder(), newRecorder()

	go func() {
		s, err := ln.Accept()
		if err != nil {
			return
		}
		loop.Post(func() { Accept(loop, s, hostRec, opts) })
	}()

	ep := transport.Endpoint{
		Label: "Loopback_001",
		Addrs: []netip.Addr{netip.MustParseAddr("127.0.0.1")},
		Port:  ln.Port(),
	}
	var client *Connection
	onLoop(t, loop, func() { client = Dial(loop, network, ep, clientRec, opts) })

	var host *Connection
	select {
	case host = <-hostRec.ready:
	case <-time.After(waitFor):
		t.Fatal("host never became ready")
	}
	select {
	case <-clientRec.ready:
	case <-time.After(waitFor):
		t.Fatal("client never became ready")
	}

	symbol := "pause.fill"
	desc := protocol.Descriptor{
		ID:                 uuid.New(),
		Name:               "Lights",
		Description:        "Dim the lights",
		TextPausedState:    "Play",
		TextPlayingState:   "Is playing",
		SymbolPausedState:  &symbol,
		SymbolPlayingState: "play",
	}

	done := make(chan error, 1)
	onLoop(t, loop, func() {
		client.Send(&protocol.Action{Descriptor: desc, Kind: protocol.ActionPause}, func(err error) { done <- err })
	})
	require.NoError(t, <-done)

	select {
	case msg := <-hostRec.msgs:
		got, ok := msg.(*protocol.Action)
		require.True(t, ok, "expected *protocol.Action, got %T", msg)
		assert.Equal(t, desc, got.Descriptor)
		assert.Equal(t, protocol.ActionPause, got.Kind)
	case <-time.After(waitFor):
		t.Fatal("host never received the action")
	}

	onLoop(t, loop, func() {
		host.Send(&protocol.DescriptorList{Descriptors: []protocol.Descriptor{desc}}, nil)
	})
	select {
	case msg := <-clientRec.msgs:
		list, ok := msg.(*protocol.DescriptorList)
		require.True(t, ok, "expected *protocol.DescriptorList, got %T", msg)
		require.Len(t, list.Descriptors, 1)
		assert.Equal(t, desc.ID, list.Descriptors[0].ID)
	case <-time.After(waitFor):
		t.Fatal("client never received the list")
	}

	onLoop(t, loop, client.Cancel)
	select {
	case c := <-hostRec.lost:
		assert.Same(t, host, c)
	case <-time.After(waitFor):
		t.Fatal("host never saw the connection close")
	}
	assert.Empty(t, clientRec.failed)
	assert.Empty(t, hostRec.failed)
}
