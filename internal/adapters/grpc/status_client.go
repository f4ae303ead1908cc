package grpc

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// StatusClient queries a running simulation's status server
type StatusClient struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewStatusClient creates a new status client for a host:port address
func NewStatusClient(address string, opts ...grpc.DialOption) (*StatusClient, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to status server: %w", err)
	}

	return &StatusClient{
		conn:   conn,
		client: healthpb.NewHealthClient(conn),
	}, nil
}

// Close closes the gRPC connection
func (c *StatusClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Check returns the serving status of a service ("" for the server itself)
func (c *StatusClient) Check(ctx context.Context, service string) (*healthpb.HealthCheckResponse, error) {
	resp, err := c.client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return nil, fmt.Errorf("failed to check %q: %w", service, err)
	}
	return resp, nil
}

// WaitFor blocks until the service reports the wanted status or ctx ends
func (c *StatusClient) WaitFor(ctx context.Context, service string, want healthpb.HealthCheckResponse_ServingStatus) error {
	stream, err := c.client.Watch(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("failed to watch %q: %w", service, err)
	}

	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return fmt.Errorf("status stream for %q closed", service)
		}
		if err != nil {
			return fmt.Errorf("failed to watch %q: %w", service, err)
		}
		if resp.GetStatus() == want {
			return nil
		}
	}
}

// RenderJSON formats a health response the way the CLI prints it
func RenderJSON(resp *healthpb.HealthCheckResponse) (string, error) {
	bytes, err := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to render status: %w", err)
	}
	return string(bytes), nil
}
