package resilientgraphql

import "context"

// Transport defines the single capability the client needs from the network:
// send one request and return status plus body.
//
// Implementations report connection-level failures as *TransportError so the
// classifier can match them against transport retry rules. Any other non-nil
// error is treated as TransportUnknown, except context cancellation which is
// returned to the caller as is.
type Transport interface {
	Send(ctx context.Context, req *NormalizedRequest) (*NormalizedResponse, error)
}

// CursorStore persists pagination cursors so an interrupted Pager can resume.
type CursorStore interface {
	// Load returns the stored cursor for key and whether one was found.
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, cursor string) error
	Clear(ctx context.Context, key string) error
}
