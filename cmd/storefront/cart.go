package main

import (
	"fmt"
	"strconv"

	"github.com/safar/go-storefront/internal/models"
	"github.com/spf13/cobra"
)

func newCartCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			return render(a, cmd, a.cart.Items(), nil, "", printCart)
		},
	}

	var qty int
	add := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Add a product, or more of it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			p, err := a.catalog.Get(cmd.Context(), args[0])
			if err != nil {
				return render(a, cmd, models.Cart(nil), err, "", nil)
			}
			err = a.cart.Add(cmd.Context(), p.CartLine(qty), qty)
			return render(a, cmd, a.cart.Items(), err, "Added "+p.Name+" to cart", printCart)
		},
	}
	add.Flags().IntVarP(&qty, "qty", "q", 1, "quantity to add")

	set := &cobra.Command{
		Use:   "set PRODUCT_ID QUANTITY",
		Short: "Set a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity %q is not a number", args[1])
			}
			err = a.cart.UpdateQuantity(cmd.Context(), args[0], n)
			return render(a, cmd, a.cart.Items(), err, "Cart updated", printCart)
		},
	}

	remove := &cobra.Command{
		Use:   "remove PRODUCT_ID",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			err := a.cart.Remove(cmd.Context(), args[0])
			return render(a, cmd, a.cart.Items(), err, "Removed from cart", printCart)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			err := a.cart.Clear(cmd.Context())
			return render(a, cmd, a.cart.Items(), err, "Cart cleared", nil)
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print the guest cart whenever another process changes it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			w := cmd.OutOrStdout()
			printCart(w, a.cart.Items())
			changes := make(chan models.Cart, 1)
			go func() {
				for c := range changes {
					fmt.Fprintln(w, "--")
					printCart(w, c)
				}
			}()
			defer close(changes)
			return a.watchCart(cmd, changes)
		},
	}

	cmd.AddCommand(add, set, remove, clearCmd, watch)
	return cmd
}

func (a *app) watchCart(cmd *cobra.Command, out chan<- models.Cart) error {
	last := a.cart.Items()
	a.cart.SetOnChange(func(c models.Cart) {
		if cartEqual(last, c) {
			return
		}
		last = c
		out <- c
	})
	err := a.cart.Watch(cmd.Context())
	if err == cmd.Context().Err() {
		return nil
	}
	return err
}

func cartEqual(a, b models.Cart) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Quantity != b[i].Quantity || !a[i].Price.Equal(b[i].Price) {
			return false
		}
	}
	return true
}
