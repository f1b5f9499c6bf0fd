package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

const (
	maxTitleLength  = 200
	maxAuthorLength = 100
	isbnLength      = 13
)

type CatalogService struct {
	books  port.BookRepository
	logger *slog.Logger
}

func NewCatalogService(books port.BookRepository, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{books: books, logger: logger}
}

// AddBook validates and registers a new title with every copy available.
func (s *CatalogService) AddBook(ctx context.Context, title, author, isbn string, totalCopies int) (string, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	switch {
	case title == "":
		return "", ErrTitleRequired
	case utf8.RuneCountInString(title) > maxTitleLength:
		return "", ErrTitleTooLong
	case author == "":
		return "", ErrAuthorRequired
	case utf8.RuneCountInString(author) > maxAuthorLength:
		return "", ErrAuthorTooLong
	case utf8.RuneCountInString(isbn) != isbnLength:
		return "", ErrInvalidISBN
	case totalCopies <= 0:
		return "", ErrInvalidCopies
	}

	existing, err := s.books.GetBookByISBN(ctx, isbn)
	if err != nil {
		s.logger.Error("isbn lookup failed", "isbn", isbn, "error", err)
		return "", ErrAddBookFailed.withCause(err)
	}
	if existing != nil {
		return "", ErrDuplicateISBN
	}

	book := &domain.Book{
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}
	if err := s.books.InsertBook(ctx, book); err != nil {
		if errors.Is(err, port.ErrDuplicateKey) {
			return "", ErrDuplicateISBN
		}
		s.logger.Error("insert book failed", "isbn", isbn, "error", err)
		return "", ErrAddBookFailed.withCause(err)
	}

	s.logger.Info("book added", "book_id", book.ID, "isbn", isbn, "copies", totalCopies)
	return fmt.Sprintf(`Book "%s" has been successfully added to the catalog.`, title), nil
}

func (s *CatalogService) GetBook(ctx context.Context, bookID int64) (domain.Book, error) {
	book, err := s.books.GetBookByID(ctx, bookID)
	if err != nil {
		return domain.Book{}, ErrCatalogFailed.withCause(err)
	}
	if book == nil {
		return domain.Book{}, ErrBookNotFound
	}
	return *book, nil
}

func (s *CatalogService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	books, err := s.books.GetAllBooks(ctx)
	if err != nil {
		return nil, ErrCatalogFailed.withCause(err)
	}
	return books, nil
}

// SearchBooks matches title and author case-insensitively by substring and
// isbn exactly. An unknown search type yields no results.
func (s *CatalogService) SearchBooks(ctx context.Context, term string, searchType domain.SearchType) ([]domain.Book, error) {
	searchType = domain.SearchType(strings.ToLower(string(searchType)))
	switch searchType {
	case domain.SearchByTitle, domain.SearchByAuthor, domain.SearchByISBN:
	default:
		return []domain.Book{}, nil
	}

	books, err := s.books.GetAllBooks(ctx)
	if err != nil {
		return nil, ErrCatalogFailed.withCause(err)
	}

	term = strings.ToLower(term)
	result := []domain.Book{}
	for _, b := range books {
		if matchesSearch(b, term, searchType) {
			result = append(result, b)
		}
	}
	return result, nil
}

func matchesSearch(b domain.Book, term string, searchType domain.SearchType) bool {
	switch searchType {
	case domain.SearchByISBN:
		return b.ISBN == term
	case domain.SearchByAuthor:
		return strings.Contains(strings.ToLower(b.Author), term)
	default:
		return strings.Contains(strings.ToLower(b.Title), term)
	}
}
