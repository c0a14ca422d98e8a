package classifier

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region client-struct
// Client talks to a remote classifier service over gRPC. It implements Classifier.
type Client struct {
	conn   *grpc.ClientConn
	client ServiceClient
}

// #endregion client-struct

// #region constructor
// NewClient connects to the classifier service at addr.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: NewServiceClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc ServiceClient) *Client {
	return &Client{client: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region add-example
// AddExample sends one labelled sample to the service.
func (c *Client) AddExample(ctx context.Context, features []float64, label string) error {
	req, err := exampleRequest(features, label)
	if err != nil {
		return fmt.Errorf("encode example: %w", err)
	}
	if _, err := c.client.AddExample(ctx, req); err != nil {
		return fmt.Errorf("add example rpc: %w", fromStatus(err))
	}
	return nil
}

// #endregion add-example

// #region classify
// Classify asks the service for the label of one feature vector.
func (c *Client) Classify(ctx context.Context, features []float64) (Result, error) {
	req, err := classifyRequest(features)
	if err != nil {
		return Result{}, fmt.Errorf("encode features: %w", err)
	}
	resp, err := c.client.Classify(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("classify rpc: %w", fromStatus(err))
	}
	return decodeResult(resp), nil
}

// #endregion classify

// #region counts
// CountByLabel returns the service's per-label example counts.
func (c *Client) CountByLabel(ctx context.Context) (map[string]int, error) {
	resp, err := c.client.CountByLabel(ctx, &structpb.Struct{})
	if err != nil {
		return nil, fmt.Errorf("count by label rpc: %w", fromStatus(err))
	}
	return decodeCounts(resp), nil
}

// ClearLabel removes every example for label on the service.
func (c *Client) ClearLabel(ctx context.Context, label string) (int, error) {
	req, err := labelRequest(label)
	if err != nil {
		return 0, fmt.Errorf("encode label: %w", err)
	}
	resp, err := c.client.ClearLabel(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("clear label rpc: %w", fromStatus(err))
	}
	return decodeRemoved(resp), nil
}

// #endregion counts

// #region status-mapping
// fromStatus maps the codes the server emits back onto package sentinels so
// callers can use errors.Is regardless of transport.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.FailedPrecondition:
		return fmt.Errorf("%s: %w", st.Message(), ErrNoExamples)
	case codes.OutOfRange:
		return fmt.Errorf("%s: %w", st.Message(), ErrDimensionMismatch)
	}
	return err
}

// #endregion status-mapping
