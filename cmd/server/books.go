package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/snnyvrz/booklibrary/internal/db"
	"github.com/snnyvrz/booklibrary/internal/model"
	"github.com/snnyvrz/booklibrary/internal/repository"
)

// bookRunner runs fn against the configured store, migrating it first.
type bookRunner func(ctx context.Context, configFile string, fn func(repository.BookRepository) error) error

func withBooks(ctx context.Context, configFile string, fn func(repository.BookRepository) error) error {
	a, err := setup(ctx, configFile)
	if err != nil {
		return err
	}
	defer a.close()

	if err := db.Migrate(a.db); err != nil {
		return err
	}

	return fn(a.books())
}

func newBooksCmd(configFile *string) *cobra.Command {
	return newBooksCmdWith(configFile, withBooks)
}

func newBooksCmdWith(configFile *string, run bookRunner) *cobra.Command {
	books := &cobra.Command{
		Use:   "books",
		Short: "Manage books from the command line",
	}

	books.AddCommand(
		newBooksListCmd(configFile, run),
		newBooksAddCmd(configFile, run),
		newBooksDeleteCmd(configFile, run),
		newBooksTransitionCmd(configFile, run, "borrow", "Mark a book as borrowed",
			func(ctx context.Context, r repository.BookRepository, id uint) (*model.Book, error) {
				return r.Borrow(ctx, id)
			}),
		newBooksTransitionCmd(configFile, run, "return", "Mark a borrowed book as available",
			func(ctx context.Context, r repository.BookRepository, id uint) (*model.Book, error) {
				return r.Return(ctx, id)
			}),
	)

	return books
}

func newBooksListCmd(configFile *string, run bookRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every stored book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *configFile, func(r repository.BookRepository) error {
				books, err := r.List(cmd.Context())
				if err != nil {
					return err
				}
				printBooks(cmd.OutOrStdout(), books)
				return nil
			})
		},
	}
}

func newBooksAddCmd(configFile *string, run bookRunner) *cobra.Command {
	var (
		name, author, bookType, status string
		year                           int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *configFile, func(r repository.BookRepository) error {
				book := model.New(name, author, year, bookType, status)
				if err := r.Save(cmd.Context(), book); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), book.String())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "book title")
	cmd.Flags().StringVar(&author, "author", "", "book author")
	cmd.Flags().IntVar(&year, "year", 0, "year published")
	cmd.Flags().StringVar(&bookType, "type", "", "book type, e.g. fiction")
	cmd.Flags().StringVar(&status, "status", "", `status (default "available")`)

	return cmd
}

func newBooksDeleteCmd(configFile *string, run bookRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return run(cmd.Context(), *configFile, func(r repository.BookRepository) error {
				if err := r.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted book %d\n", id)
				return nil
			})
		},
	}
}

func newBooksTransitionCmd(
	configFile *string,
	run bookRunner,
	use, short string,
	apply func(context.Context, repository.BookRepository, uint) (*model.Book, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return run(cmd.Context(), *configFile, func(r repository.BookRepository) error {
				book, err := apply(cmd.Context(), r, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), book.String())
				return nil
			})
		},
	}
}

func printBooks(w io.Writer, books []model.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "no books stored")
		return
	}
	for _, b := range books {
		fmt.Fprintln(w, b.String())
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Errorf("invalid book id %q", s)
	}
	return uint(id), nil
}
