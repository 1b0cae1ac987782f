package graph

import (
	"context"
	"errors"
)

// Client is the contract the repository needs from the underlying graph
// database. Both the Bolt-backed client and the in-memory test client
// implement it.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result is a flattened query response.
type Result struct {
	Records []Record
}

// Record is one row of key-value pairs returned by the graph engine.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI indicates no graph URI was provided.
var ErrMissingURI = errors.New("graph URI is required")
