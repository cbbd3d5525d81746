// Package transport declares the collaborator interface the engine needs
// from a message transport: deliver a document to an address, and
// broadcast a lifecycle event. The engine never depends on a concrete
// transport; adapters live in subpackages.
package transport

import (
	"context"

	"github.com/krew-solutions/courier-go/courier/contracts"
)

// Headers carries transport-level metadata propagated across hops.
type Headers map[string]string

// Clone returns an independent copy of the headers.
func (h Headers) Clone() Headers {
	out := make(Headers, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Endpoint is a resolved destination for point-to-point delivery.
type Endpoint interface {
	// Send delivers a message to the endpoint.
	Send(ctx context.Context, message any) error

	// Forward delivers a message while carrying over the headers of the
	// message currently being handled.
	Forward(ctx context.Context, original Headers, message any) error
}

// Transport is what the engine requires from the messaging layer.
// Redelivery, dead-lettering and ordering are its responsibility,
// not the engine's.
type Transport interface {
	// Endpoint resolves an opaque address to a sendable endpoint.
	Endpoint(address string) (Endpoint, error)

	// Publish broadcasts a lifecycle event to every interested listener.
	Publish(ctx context.Context, kind contracts.Events, message any) error
}
