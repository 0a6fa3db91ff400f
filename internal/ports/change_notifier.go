package ports

import "context"

// Port: a change feed for stores that have none of their own.
type ChangeNotifier interface {
	// Signal that the street collection changed.
	Publish(ctx context.Context) error
	// Return a channel that receives a value per change until ctx is done.
	Listen(ctx context.Context) (<-chan struct{}, error)
}
