package domain

// Book is a catalogued title. AvailableCopies never leaves [0, TotalCopies].
type Book struct {
	ID              int64
	Title           string
	Author          string
	ISBN            string
	TotalCopies     int
	AvailableCopies int
}

// SearchType selects the Book field a catalog search matches against.
type SearchType string

const (
	SearchByTitle  SearchType = "title"
	SearchByAuthor SearchType = "author"
	SearchByISBN   SearchType = "isbn"
)
