package health

import "context"

// Pinger checks the availability of one dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}
