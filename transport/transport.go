// Package transport defines the peer-addressing contract the operation
// drivers send wire.Messages through, plus an in-memory channel-based
// implementation for tests and single-process embedding. A real network
// transport is out of scope (spec.md's non-goals); this package only
// carries messages reliably between goroutines representing peers.
package transport

import (
	"context"

	"github.com/dsys/vecqueue/vqerr"
	"github.com/dsys/vecqueue/wire"
)

// Peer is the send side of one participant's mailbox. A driver running as
// process p calls Send on peer r's Peer to deliver one message to r.
type Peer interface {
	Send(ctx context.Context, msg wire.Message) error
}

// Mailbox is the receive side: the channel a process's driver loop reads
// incoming messages from.
type Mailbox interface {
	Recv(ctx context.Context) (wire.Message, error)
}

// Network is an in-memory loopback transport connecting a fixed set of N
// mailboxes, one per process rank, grounded on the teacher's channel-backed
// Peer/testNode idiom: each rank's mailbox is a buffered channel, and
// Send/Recv are its only operations.
type Network struct {
	boxes []chan wire.Message
}

// NewNetwork returns a Network with n mailboxes, each buffered to hold up
// to buffer pending messages before Send blocks.
func NewNetwork(n, buffer int) *Network {
	boxes := make([]chan wire.Message, n)
	for i := range boxes {
		boxes[i] = make(chan wire.Message, buffer)
	}
	return &Network{boxes: boxes}
}

// Peer returns the send-side handle for rank, and an error if rank is out
// of range.
func (net *Network) Peer(rank int) (Peer, error) {
	if rank < 0 || rank >= len(net.boxes) {
		return nil, vqerr.OutOfRange(rank, len(net.boxes))
	}
	return networkPeer{net: net, rank: rank}, nil
}

// Mailbox returns the receive-side handle for rank, and an error if rank is
// out of range.
func (net *Network) Mailbox(rank int) (Mailbox, error) {
	if rank < 0 || rank >= len(net.boxes) {
		return nil, vqerr.OutOfRange(rank, len(net.boxes))
	}
	return networkPeer{net: net, rank: rank}, nil
}

// N reports the number of mailboxes this network serves.
func (net *Network) N() int {
	return len(net.boxes)
}

type networkPeer struct {
	net  *Network
	rank int
}

func (p networkPeer) Send(ctx context.Context, msg wire.Message) error {
	select {
	case p.net.boxes[p.rank] <- msg:
		return nil
	case <-ctx.Done():
		return vqerr.TransportFailure(ctx.Err())
	}
}

func (p networkPeer) Recv(ctx context.Context) (wire.Message, error) {
	select {
	case msg := <-p.net.boxes[p.rank]:
		return msg, nil
	case <-ctx.Done():
		return wire.Message{}, vqerr.TransportFailure(ctx.Err())
	}
}
