package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
)

func newBookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage the catalog",
	}
	cmd.AddCommand(newBookAddCmd(), newBookListCmd(), newBookSearchCmd())
	return cmd
}

func newBookAddCmd() *cobra.Command {
	var (
		title  string
		author string
		isbn   string
		copies int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, eng *engine) error {
				return report(eng.svc.Catalog.AddBook(ctx, title, author, isbn, copies))
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Book title")
	cmd.Flags().StringVar(&author, "author", "", "Book author")
	cmd.Flags().StringVar(&isbn, "isbn", "", "13 digit ISBN")
	cmd.Flags().IntVar(&copies, "copies", 1, "Number of copies")
	return cmd
}

func newBookListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, eng *engine) error {
				books, err := eng.svc.Catalog.ListBooks(ctx)
				if err != nil {
					return err
				}
				printBooks(books)
				return nil
			})
		},
	}
}

func newBookSearchCmd() *cobra.Command {
	var searchType string

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the catalog by title, author or isbn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, eng *engine) error {
				books, err := eng.svc.Catalog.SearchBooks(ctx, args[0], domain.SearchType(searchType))
				if err != nil {
					return err
				}
				printBooks(books)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&searchType, "type", string(domain.SearchByTitle), "Field to search: title, author or isbn")
	return cmd
}

func printBooks(books []domain.Book) {
	if len(books) == 0 {
		warn("no books found")
		return
	}

	header("%d book(s)", len(books))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tISBN\tAVAILABLE")
	for _, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d/%d\n", b.ID, b.Title, b.Author, b.ISBN, b.AvailableCopies, b.TotalCopies)
	}
	tw.Flush()
}
