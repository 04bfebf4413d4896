package ports

import "context"

// Transactor runs fn inside one atomic unit. Repositories called with the
// context handed to fn take part in the transaction; if fn returns an error
// nothing it wrote is committed.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
