package domain

import "time"

// Product is a catalog entry. The catalog is seeded by the schema files and is read-only here.
type Product struct {
	ID          int64
	Name        string
	Description string
	Category    string
	Price       Money
	Stock       int

	CreatedAt time.Time
}
