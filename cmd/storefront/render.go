package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// errReported marks a failure already written to stdout as a JSON result.
var errReported = errors.New("reported")

// render prints the outcome of one operation, either as a Result envelope or
// through the human formatter.
func render[T any](a *app, cmd *cobra.Command, data T, err error, okMessage string, human func(w io.Writer, data T)) error {
	res := api.ResultOf(data, err, okMessage)
	w := cmd.OutOrStdout()

	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
		if !res.Success {
			return errReported
		}
		return nil
	}

	if !res.Success {
		return res.Err
	}
	if human != nil {
		human(w, data)
	}
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}
	return nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func printCart(w io.Writer, c models.Cart) {
	if len(c) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range c {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", it.ID, it.Name, it.Format, it.Quantity, money(it.Price), money(it.Subtotal()))
	}
	fmt.Fprintf(tw, "\t\t\t%d\t\t%s\n", c.Count(), money(c.Total()))
	tw.Flush()
}

func printProducts(w io.Writer, products []models.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tOFFER")
	for _, p := range products {
		offer := ""
		if p.Offer != nil {
			offer = fmt.Sprintf("%s (-%s%%)", p.Offer.Title, p.Offer.DiscountPercent.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Category, money(p.Price), p.Stock, offer)
	}
	tw.Flush()
}

func printProduct(w io.Writer, p *models.Product) {
	fmt.Fprintf(w, "%s  %s\n", p.ID, p.Name)
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}
	fmt.Fprintf(w, "Price: %s", money(p.Price))
	if !p.OriginalPrice.IsZero() && !p.OriginalPrice.Equal(p.Price) {
		fmt.Fprintf(w, " (was %s)", money(p.OriginalPrice))
	}
	fmt.Fprintf(w, "\nFormat: %s  Category: %s  Stock: %d\n", p.Format, p.Category, p.Stock)
	if len(p.Images) > 0 {
		fmt.Fprintf(w, "Images: %s\n", strings.Join(p.Images, ", "))
	}
	if p.Offer != nil {
		fmt.Fprintf(w, "Offer: %s, %s%% off\n", p.Offer.Title, p.Offer.DiscountPercent.String())
	}
}

func printOrders(w io.Writer, orders []models.Order) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLACED\tITEMS\tTOTAL\tSTATUS")
	for _, o := range orders {
		placed := ""
		if !o.CreatedAt.IsZero() {
			placed = o.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", o.ID, placed, len(o.OrderItems), money(o.TotalPrice), statusLabel(o.OrderStatus))
	}
	tw.Flush()
}

// statusLabel renders an order status for people. New orders often come back
// without one; unknown values pass through as sent.
func statusLabel(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", models.OrderStatusPending:
		return "Pending"
	case models.OrderStatusConfirmed:
		return "Confirmed"
	case models.OrderStatusShipped:
		return "Shipped"
	case models.OrderStatusDelivered:
		return "Delivered"
	case models.OrderStatusCancelled:
		return "Cancelled"
	}
	return status
}

func printAddress(w io.Writer, a models.Address) {
	fmt.Fprintf(w, "%s  %s, %s, %s, %s %s, %s\n", a.ID, a.FullName, a.Street, a.City, a.State, a.PinCode, a.Country)
}
