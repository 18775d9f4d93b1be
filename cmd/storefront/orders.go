package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/safar/go-storefront/internal/catalog"
	"github.com/safar/go-storefront/internal/checkout"
	"github.com/safar/go-storefront/internal/models"
	"github.com/spf13/cobra"
)

func newCheckoutCmd(get func() *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Review the cart and place the order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()

			summary, err := a.checkout.Prepare(ctx)
			if err != nil {
				return render(a, cmd, (*models.Order)(nil), err, "", nil)
			}

			if !a.jsonOut {
				printSummary(cmd.OutOrStdout(), summary)
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Place order?") {
				return render(a, cmd, (*models.Order)(nil), nil, "Checkout cancelled", nil)
			}

			order, err := a.checkout.Place(ctx, summary)
			return render(a, cmd, order, err, "Order placed", func(w io.Writer, o *models.Order) {
				fmt.Fprintf(w, "Order %s confirmed.\n", o.ID)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "place the order without asking")
	return cmd
}

func printSummary(w io.Writer, s *checkout.Summary) {
	fmt.Fprintln(w, "Ship to:")
	printAddress(w, s.Address)
	fmt.Fprintln(w)
	printCart(w, s.Items)
	fmt.Fprintf(w, "Subtotal: %s\nTax: %s\nShipping: %s\nTotal: %s\n",
		money(s.Subtotal), money(s.Tax), money(s.Shipping), money(s.GrandTotal))
}

// confirm prompts on out (stderr in the CLI) and reads a y/N answer from in.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newOrdersCmd(get func() *app) *cobra.Command {
	var (
		cursor string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			s, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			page, err := a.history.Page(cmd.Context(), s.User.ID, cursor, limit)
			return render(a, cmd, page, err, "", func(w io.Writer, p catalog.CursorPage[models.Order]) {
				printOrders(w, p.Items)
				if p.HasMore {
					fmt.Fprintf(w, "More: storefront orders --cursor %s\n", p.NextCursor)
				}
			})
		},
	}
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue after this cursor")
	cmd.Flags().IntVar(&limit, "limit", catalog.DefaultPageSize, "orders per page")

	show := &cobra.Command{
		Use:   "show ORDER_ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			order, err := a.orders.Get(cmd.Context(), args[0])
			return render(a, cmd, order, err, "", func(w io.Writer, o *models.Order) {
				printOrders(w, []models.Order{*o})
				for _, it := range o.OrderItems {
					fmt.Fprintf(w, "  %d x %s @ %s\n", it.Quantity, it.Name, money(it.Price))
				}
			})
		},
	}
	cmd.AddCommand(show)
	return cmd
}
