package matchformat

import "context"

// Repository lists formats in configuration order.
type Repository interface {
	List(ctx context.Context) ([]Format, error)
	GetByID(ctx context.Context, id int64) (Format, bool, error)
}
