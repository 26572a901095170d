package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	gatev1 "github.com/ppiankov/envguard/api/gate/v1"
	"github.com/ppiankov/envguard/internal/intercept"
	"github.com/ppiankov/envguard/internal/model"
)

// DefaultTimeout bounds a single Evaluate call.
const DefaultTimeout = 2 * time.Second

// ReasonUnreachable is the block reason when a fail-closed remote is down.
const ReasonUnreachable = "decision service unreachable"

// Client connects to an envguard decision service.
type Client struct {
	conn    *grpc.ClientConn
	gate    gatev1.GateClient
	timeout time.Duration
}

// New creates a gRPC client for addr. The connection is established lazily.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to decision service: %w", err)
	}
	return &Client{
		conn:    conn,
		gate:    gatev1.NewGateClient(conn),
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout overrides DefaultTimeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// Evaluate sends a tool call to the remote service. It returns the decision
// and the message the agent should see on block.
func (c *Client) Evaluate(ctx context.Context, req model.ToolRequest) (model.Decision, string, error) {
	in, err := gatev1.RequestToStruct(req)
	if err != nil {
		return model.Decision{}, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.gate.Evaluate(ctx, in)
	if err != nil {
		return model.Decision{}, "", fmt.Errorf("evaluate: %w", err)
	}
	return gatev1.StructToDecision(resp)
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Remote adapts a Client to the hook's Evaluator. RPC failures resolve by
// FailMode: allow when open, block when closed.
type Remote struct {
	Client   *Client
	FailMode intercept.FailMode
	OnError  func(error)
}

// Evaluate implements hook.Evaluator.
func (r Remote) Evaluate(req model.ToolRequest) model.Decision {
	d, _, err := r.Client.Evaluate(context.Background(), req)
	if err == nil {
		return d
	}
	if r.OnError != nil {
		r.OnError(err)
	}
	if r.FailMode == intercept.FailClosed {
		return model.BlockDecision(ReasonUnreachable, err.Error())
	}
	return model.AllowDecision()
}
