package coordination

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

func TestChannelTradeNetwork_FullHandshake(t *testing.T) {
	// Arrange
	network := NewChannelTradeNetwork([]int{0}, []int{7})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	portDone := make(chan error, 1)
	go func() {
		req, err := network.NextRequest(ctx, 0)
		if err != nil {
			portDone <- err
			return
		}
		if err := network.SendReply(ctx, req.ShipID, req.Accept()); err != nil {
			portDone <- err
			return
		}
		completion, err := network.AwaitCompletion(ctx, 0)
		if err != nil {
			portDone <- err
			return
		}
		portDone <- network.SendDone(ctx, completion.ShipID, protocol.Done{PortID: 0, GoodID: completion.GoodID, Tons: completion.Tons})
	}()

	// Act
	require.NoError(t, network.SendRequest(ctx, protocol.Request{Kind: protocol.TransferLoad, ShipID: 7, PortID: 0, GoodID: 1, Tons: 10}))
	reply, err := network.AwaitReply(ctx, 7)
	require.NoError(t, err)
	require.True(t, reply.Accepted)

	portID, inFlight := network.InFlight(7)
	assert.True(t, inFlight)
	assert.Equal(t, 0, portID)

	require.NoError(t, network.SendCompletion(ctx, 0, protocol.Completion{ShipID: 7, GoodID: 1, Tons: 6}))
	done, err := network.AwaitDone(ctx, 7)

	// Assert
	require.NoError(t, err)
	require.NoError(t, <-portDone)
	assert.Equal(t, 6, done.Tons)
	_, inFlight = network.InFlight(7)
	assert.False(t, inFlight)
}

func TestChannelTradeNetwork_OneHandshakePerShip(t *testing.T) {
	network := NewChannelTradeNetwork([]int{0, 1}, []int{7})
	ctx := context.Background()

	require.NoError(t, network.SendRequest(ctx, protocol.Request{Kind: protocol.TransferLoad, ShipID: 7, PortID: 0, Tons: 1}))
	err := network.SendRequest(ctx, protocol.Request{Kind: protocol.TransferLoad, ShipID: 7, PortID: 1, Tons: 1})

	var inFlightErr *shared.HandshakeInFlightError
	require.ErrorAs(t, err, &inFlightErr)
	assert.Equal(t, 0, inFlightErr.PortID)
}

func TestChannelTradeNetwork_RejectClosesHandshake(t *testing.T) {
	network := NewChannelTradeNetwork([]int{0}, []int{7})
	ctx := context.Background()
	req := protocol.Request{Kind: protocol.TransferLoad, ShipID: 7, PortID: 0, Tons: 1}

	require.NoError(t, network.SendRequest(ctx, req))
	served, err := network.NextRequest(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, network.SendReply(ctx, served.ShipID, served.Reject()))

	reply, err := network.AwaitReply(ctx, 7)
	require.NoError(t, err)
	assert.False(t, reply.Accepted)

	// The ship may negotiate again
	assert.NoError(t, network.SendRequest(ctx, req))
}

func TestChannelTradeNetwork_RequestsServedInQueueOrder(t *testing.T) {
	network := NewChannelTradeNetwork([]int{0}, []int{1, 2, 3})
	ctx := context.Background()

	for _, ship := range []int{2, 3, 1} {
		require.NoError(t, network.SendRequest(ctx, protocol.Request{Kind: protocol.TransferUnload, ShipID: ship, PortID: 0, Tons: 1}))
	}

	var order []int
	for range 3 {
		req, err := network.NextRequest(ctx, 0)
		require.NoError(t, err)
		order = append(order, req.ShipID)
	}
	assert.Equal(t, []int{2, 3, 1}, order)
}

func TestChannelTradeNetwork_ShutdownUnblocksWaiters(t *testing.T) {
	network := NewChannelTradeNetwork([]int{0}, []int{7})

	waiting := make(chan error, 1)
	go func() {
		_, err := network.NextRequest(context.Background(), 0)
		waiting <- err
	}()

	require.NoError(t, network.Shutdown())
	require.NoError(t, network.Shutdown())

	select {
	case err := <-waiting:
		assert.ErrorIs(t, err, ErrNetworkShutdown)
	case <-time.After(time.Second):
		t.Fatal("port stayed blocked after shutdown")
	}
	assert.ErrorIs(t, network.SendRequest(context.Background(), protocol.Request{ShipID: 7, PortID: 0, Tons: 1}), ErrNetworkShutdown)
}

func TestChannelTradeNetwork_UnknownParticipants(t *testing.T) {
	network := NewChannelTradeNetwork([]int{0}, []int{7})
	ctx := context.Background()

	assert.Error(t, network.SendRequest(ctx, protocol.Request{ShipID: 7, PortID: 4}))
	assert.Error(t, network.SendRequest(ctx, protocol.Request{ShipID: 9, PortID: 0}))
	_, err := network.AwaitReply(ctx, 9)
	assert.Error(t, err)
}
