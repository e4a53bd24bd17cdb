package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsys/vecqueue/wire"
)

func TestSendThenRecvDeliversMessage(t *testing.T) {
	net := NewNetwork(2, 4)
	peer, err := net.Peer(1)
	require.NoError(t, err)
	box, err := net.Mailbox(1)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, peer.Send(ctx, wire.Message{Kind: wire.EnqAck, Value: 9}))

	msg, err := box.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(9), msg.Value)
}

func TestOutOfRangeRankIsRejected(t *testing.T) {
	net := NewNetwork(2, 4)
	_, err := net.Peer(2)
	require.Error(t, err)
	_, err = net.Mailbox(-1)
	require.Error(t, err)
}

func TestRecvRespectsContextCancellation(t *testing.T) {
	net := NewNetwork(1, 0)
	box, err := net.Mailbox(0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = box.Recv(ctx)
	require.Error(t, err)
}
