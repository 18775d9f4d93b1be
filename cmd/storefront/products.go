package main

import (
	"fmt"
	"io"

	"github.com/safar/go-storefront/internal/catalog"
	"github.com/safar/go-storefront/internal/models"
	"github.com/spf13/cobra"
)

func newProductsCmd(get func() *app) *cobra.Command {
	var q catalog.Query
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			page, err := a.catalog.List(cmd.Context(), q)
			return render(a, cmd, page, err, "", func(w io.Writer, p catalog.OffsetPage[models.Product]) {
				printProducts(w, p.Items)
				fmt.Fprintf(w, "Page %d of %d (%d products)\n", p.Page, p.TotalPages, p.Total)
			})
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.PageSize, "page-size", catalog.DefaultPageSize, "products per page")
	cmd.Flags().StringVar(&q.Category, "category", "", "only this category")
	cmd.Flags().StringVar(&q.Search, "search", "", "name contains")

	show := &cobra.Command{
		Use:   "show PRODUCT_ID",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			p, err := a.catalog.Get(cmd.Context(), args[0])
			return render(a, cmd, p, err, "", printProduct)
		},
	}
	cmd.AddCommand(show)
	return cmd
}

func newOffersCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offers",
		Short: "Show the top offers shelf",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			offers, err := a.catalog.TopOffers(cmd.Context())
			return render(a, cmd, offers, err, "", printProducts)
		},
	}

	set := &cobra.Command{
		Use:   "set PRODUCT_ID...",
		Short: "Choose the products on the top offers shelf (admin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			offers, err := a.catalog.SetTopOffers(cmd.Context(), args)
			return render(a, cmd, offers, err, "Top offers updated", printProducts)
		},
	}
	cmd.AddCommand(set)
	return cmd
}
