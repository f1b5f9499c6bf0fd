package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
)

func newBorrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <patron_id> <book_id>",
		Short: "Lend a book to a patron for 14 days",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, eng *engine) error {
				return report(eng.svc.Loans.BorrowBook(ctx, args[0], bookID))
			})
		},
	}
}

func newReturnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <patron_id> <book_id>",
		Short: "Record the return of a borrowed book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, eng *engine) error {
				return report(eng.svc.Loans.ReturnBook(ctx, args[0], bookID))
			})
		},
	}
}

func newFeeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fee <patron_id> <book_id>",
		Short: "Show the late fee owed on a loan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, eng *engine) error {
				quote := eng.svc.Fees.ComputeFee(ctx, args[0], bookID)
				if quote.DaysOverdue == nil {
					warn("%s", quote.Status)
					return nil
				}

				line := fmt.Sprintf("$%s (%d day(s) overdue)", quote.FeeAmount.StringFixed(2), *quote.DaysOverdue)
				if quote.Overdue() {
					fmt.Println(color.YellowString(quote.Status+":"), line)
				} else {
					ok("%s", quote.Status)
				}
				return nil
			})
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <patron_id>",
		Short: "Show a patron's loans and the late fees they owe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, eng *engine) error {
				rep, err := eng.svc.Status.GetPatronStatus(ctx, args[0])
				if err != nil {
					return report("", err)
				}
				if rep == nil {
					warn("no status available for patron %q", args[0])
					return nil
				}

				header("Patron %s owes $%s", rep.PatronID, rep.TotalLateFeesOwed.StringFixed(2))
				fmt.Println()
				header("Currently borrowed")
				printLoans(rep.CurrentlyBorrowed)
				fmt.Println()
				header("History")
				printLoans(rep.BorrowingHistory)
				return nil
			})
		},
	}
}

func printLoans(loans []domain.LoanRecord) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOK\tTITLE\tBORROWED\tDUE\tRETURNED")
	for _, l := range loans {
		returned := "-"
		if l.ReturnDate != nil {
			returned = l.ReturnDate.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.BookID, l.Title,
			l.BorrowDate.Format(time.DateOnly), l.DueDate.Format(time.DateOnly), returned)
	}
	tw.Flush()
}

func newPayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <patron_id> <book_id>",
		Short: "Charge the late fee owed on a loan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, eng *engine) error {
				receipt, err := eng.svc.Payments.PayLateFees(ctx, args[0], bookID)
				if err := report(receipt.Message, err); err != nil {
					return err
				}
				fmt.Println("  transaction:", receipt.TransactionID)
				return nil
			})
		},
	}
}

func newRefundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refund <transaction_id> <amount>",
		Short: "Refund a late fee payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			return withEngine(cmd, func(ctx context.Context, eng *engine) error {
				return report(eng.svc.Payments.RefundLateFeePayment(ctx, args[0], amount))
			})
		},
	}
}
