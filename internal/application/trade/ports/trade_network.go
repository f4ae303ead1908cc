package ports

import (
	"context"

	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
)

// TradeNetwork abstracts how ships and ports exchange handshake messages.
//
// One transfer is four messages in strict order:
// 1. Request: ship → port, queued on the port's inbox in arrival order
// 2. Reply: port → ship, accept or reject
// 3. Completion: ship → port, the tons actually moved, sent after the loading delay
// 4. Done: port → ship, once the port committed the transfer
//
// A ship has at most one handshake in flight at a time.
type TradeNetwork interface {
	// SendRequest queues a request on the target port's inbox.
	// Fails if the ship already has a handshake in flight.
	SendRequest(ctx context.Context, request protocol.Request) error

	// AwaitReply blocks until the port answers the ship's request or context is cancelled.
	AwaitReply(ctx context.Context, shipID int) (protocol.Reply, error)

	// SendCompletion tells the port how many tons were actually moved.
	SendCompletion(ctx context.Context, portID int, completion protocol.Completion) error

	// AwaitDone blocks until the port acknowledges the completion or context is cancelled.
	AwaitDone(ctx context.Context, shipID int) (protocol.Done, error)

	// NextRequest blocks until the oldest request on the port's inbox is available.
	NextRequest(ctx context.Context, portID int) (protocol.Request, error)

	// SendReply answers a request.
	SendReply(ctx context.Context, shipID int, reply protocol.Reply) error

	// AwaitCompletion blocks until the accepted ship reports its transfer.
	AwaitCompletion(ctx context.Context, portID int) (protocol.Completion, error)

	// SendDone acknowledges a committed completion.
	SendDone(ctx context.Context, shipID int, done protocol.Done) error

	// Shutdown stops the network; every blocked call returns.
	Shutdown() error
}
