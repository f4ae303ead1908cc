package coordination

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/andrescamacho/harbor-go/internal/application/trade/ports"
	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// ErrNetworkShutdown is returned by every call after Shutdown
var ErrNetworkShutdown = errors.New("trade network is shutdown")

// IsShutdown reports whether err means the caller should stop serving:
// the network was shut down or the caller's context ended.
func IsShutdown(err error) bool {
	return errors.Is(err, ErrNetworkShutdown) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ChannelTradeNetwork implements TradeNetwork using Go channels.
// This is the in-process implementation connecting port and ship agents.
type ChannelTradeNetwork struct {
	// Ship → Port: requests queue on the port's inbox (per-port channels)
	portInboxes map[int]chan protocol.Request

	// Ship → Port: completion of the accepted transfer (per-port channels)
	portCompletions map[int]chan protocol.Completion

	// Port → Ship: accept/reject (per-ship channels)
	shipReplies map[int]chan protocol.Reply

	// Port → Ship: final acknowledgment (per-ship channels)
	shipDones map[int]chan protocol.Done

	// Ship → port of the handshake each ship has open
	inFlight map[int]int

	done     chan struct{}
	mu       sync.RWMutex
	shutdown bool
}

// NewChannelTradeNetwork creates a network for the given port and ship ids.
func NewChannelTradeNetwork(portIDs []int, shipIDs []int) *ChannelTradeNetwork {
	n := &ChannelTradeNetwork{
		portInboxes:     make(map[int]chan protocol.Request, len(portIDs)),
		portCompletions: make(map[int]chan protocol.Completion, len(portIDs)),
		shipReplies:     make(map[int]chan protocol.Reply, len(shipIDs)),
		shipDones:       make(map[int]chan protocol.Done, len(shipIDs)),
		inFlight:        make(map[int]int),
		done:            make(chan struct{}),
	}
	for _, id := range portIDs {
		// Every ship can have one request queued at a port
		n.portInboxes[id] = make(chan protocol.Request, len(shipIDs))
		n.portCompletions[id] = make(chan protocol.Completion, 1)
	}
	for _, id := range shipIDs {
		n.shipReplies[id] = make(chan protocol.Reply, 1)
		n.shipDones[id] = make(chan protocol.Done, 1)
	}
	return n
}

// SendRequest is called by a ship agent after reserving a quantity.
func (n *ChannelTradeNetwork) SendRequest(ctx context.Context, request protocol.Request) error {
	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		return ErrNetworkShutdown
	}
	inbox := n.portInboxes[request.PortID]
	if inbox == nil {
		n.mu.Unlock()
		return fmt.Errorf("port %d not registered with network", request.PortID)
	}
	if _, ok := n.shipReplies[request.ShipID]; !ok {
		n.mu.Unlock()
		return fmt.Errorf("ship %d not registered with network", request.ShipID)
	}
	if portID, busy := n.inFlight[request.ShipID]; busy {
		n.mu.Unlock()
		return shared.NewHandshakeInFlightError(request.ShipID, portID)
	}
	n.inFlight[request.ShipID] = request.PortID
	n.mu.Unlock()

	select {
	case inbox <- request:
		return nil
	case <-ctx.Done():
		n.closeHandshake(request.ShipID)
		return ctx.Err()
	case <-n.done:
		return ErrNetworkShutdown
	}
}

// AwaitReply is called by a ship agent after SendRequest.
func (n *ChannelTradeNetwork) AwaitReply(ctx context.Context, shipID int) (protocol.Reply, error) {
	replies, err := n.replyChan(shipID)
	if err != nil {
		return protocol.Reply{}, err
	}

	select {
	case reply := <-replies:
		if !reply.Accepted {
			n.closeHandshake(shipID)
		}
		return reply, nil
	case <-ctx.Done():
		return protocol.Reply{}, ctx.Err()
	case <-n.done:
		return protocol.Reply{}, ErrNetworkShutdown
	}
}

// SendCompletion is called by a ship agent once its loading delay elapsed.
func (n *ChannelTradeNetwork) SendCompletion(ctx context.Context, portID int, completion protocol.Completion) error {
	n.mu.RLock()
	if n.shutdown {
		n.mu.RUnlock()
		return ErrNetworkShutdown
	}
	completions := n.portCompletions[portID]
	n.mu.RUnlock()

	if completions == nil {
		return fmt.Errorf("port %d not registered with network", portID)
	}

	select {
	case completions <- completion:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-n.done:
		return ErrNetworkShutdown
	}
}

// AwaitDone is called by a ship agent after SendCompletion; it closes the handshake.
func (n *ChannelTradeNetwork) AwaitDone(ctx context.Context, shipID int) (protocol.Done, error) {
	n.mu.RLock()
	if n.shutdown {
		n.mu.RUnlock()
		return protocol.Done{}, ErrNetworkShutdown
	}
	dones := n.shipDones[shipID]
	n.mu.RUnlock()

	if dones == nil {
		return protocol.Done{}, fmt.Errorf("ship %d not registered with network", shipID)
	}

	select {
	case done := <-dones:
		n.closeHandshake(shipID)
		return done, nil
	case <-ctx.Done():
		return protocol.Done{}, ctx.Err()
	case <-n.done:
		return protocol.Done{}, ErrNetworkShutdown
	}
}

// NextRequest is called by a port agent's serving loop.
func (n *ChannelTradeNetwork) NextRequest(ctx context.Context, portID int) (protocol.Request, error) {
	n.mu.RLock()
	if n.shutdown {
		n.mu.RUnlock()
		return protocol.Request{}, ErrNetworkShutdown
	}
	inbox := n.portInboxes[portID]
	n.mu.RUnlock()

	if inbox == nil {
		return protocol.Request{}, fmt.Errorf("port %d not registered with network", portID)
	}

	select {
	case request := <-inbox:
		return request, nil
	case <-ctx.Done():
		return protocol.Request{}, ctx.Err()
	case <-n.done:
		return protocol.Request{}, ErrNetworkShutdown
	}
}

// SendReply is called by a port agent to answer a request.
func (n *ChannelTradeNetwork) SendReply(ctx context.Context, shipID int, reply protocol.Reply) error {
	n.mu.RLock()
	if n.shutdown {
		n.mu.RUnlock()
		return ErrNetworkShutdown
	}
	replies := n.shipReplies[shipID]
	n.mu.RUnlock()

	if replies == nil {
		return fmt.Errorf("ship %d not registered with network", shipID)
	}

	select {
	case replies <- reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-n.done:
		return ErrNetworkShutdown
	}
}

// AwaitCompletion is called by a port agent after accepting a request.
func (n *ChannelTradeNetwork) AwaitCompletion(ctx context.Context, portID int) (protocol.Completion, error) {
	n.mu.RLock()
	if n.shutdown {
		n.mu.RUnlock()
		return protocol.Completion{}, ErrNetworkShutdown
	}
	completions := n.portCompletions[portID]
	n.mu.RUnlock()

	if completions == nil {
		return protocol.Completion{}, fmt.Errorf("port %d not registered with network", portID)
	}

	select {
	case completion := <-completions:
		return completion, nil
	case <-ctx.Done():
		return protocol.Completion{}, ctx.Err()
	case <-n.done:
		return protocol.Completion{}, ErrNetworkShutdown
	}
}

// SendDone is called by a port agent once a completion is committed.
func (n *ChannelTradeNetwork) SendDone(ctx context.Context, shipID int, done protocol.Done) error {
	n.mu.RLock()
	if n.shutdown {
		n.mu.RUnlock()
		return ErrNetworkShutdown
	}
	dones := n.shipDones[shipID]
	n.mu.RUnlock()

	if dones == nil {
		return fmt.Errorf("ship %d not registered with network", shipID)
	}

	select {
	case dones <- done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-n.done:
		return ErrNetworkShutdown
	}
}

// InFlight returns the port a ship currently negotiates with, if any.
func (n *ChannelTradeNetwork) InFlight(shipID int) (int, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	portID, ok := n.inFlight[shipID]
	return portID, ok
}

// Shutdown stops the network. Channels stay open so a late sender never panics;
// every blocked call returns through the done channel instead.
func (n *ChannelTradeNetwork) Shutdown() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.shutdown {
		return nil
	}

	n.shutdown = true
	close(n.done)
	return nil
}

func (n *ChannelTradeNetwork) replyChan(shipID int) (chan protocol.Reply, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.shutdown {
		return nil, ErrNetworkShutdown
	}
	replies := n.shipReplies[shipID]
	if replies == nil {
		return nil, fmt.Errorf("ship %d not registered with network", shipID)
	}
	return replies, nil
}

func (n *ChannelTradeNetwork) closeHandshake(shipID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.inFlight, shipID)
}

// Ensure ChannelTradeNetwork implements TradeNetwork
var _ ports.TradeNetwork = (*ChannelTradeNetwork)(nil)
