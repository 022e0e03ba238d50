// Package model defines data structures for the recommendation assistant.
package model

// Category is a topic identifier from a closed set.
type Category string

const (
	CategoryFashion Category = "fashion"
	CategoryHealth  Category = "health"
	CategoryTravel  Category = "travel"
	CategoryBooks   Category = "books"
	CategoryMovies  Category = "movies"
	CategoryMusic   Category = "music"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFashion,
	CategoryHealth,
	CategoryTravel,
	CategoryBooks,
	CategoryMovies,
	CategoryMusic,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
