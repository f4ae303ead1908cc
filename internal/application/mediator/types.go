package mediator

import (
	"context"
)

// Request is a command (RunSimulationCommand) or a query (ListRunsQuery), always sent by pointer
type Request interface{}

// Response is whatever the matching handler returns
type Response interface{}

// RequestHandler handles one request type
type RequestHandler interface {
	Handle(ctx context.Context, request Request) (Response, error)
}

// HandlerFunc adapts a function to the handler signature
type HandlerFunc func(ctx context.Context, request Request) (Response, error)

// Middleware wraps every dispatch; the first registered runs outermost
type Middleware func(ctx context.Context, request Request, next HandlerFunc) (Response, error)
