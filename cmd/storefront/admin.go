package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var errAdminOnly = errors.New("this command needs an admin account")

type productFlags struct {
	in            api.ProductInput
	price         string
	originalPrice string
}

func (f *productFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.in.Name, "name", "", "product name")
	fl.StringVar(&f.in.Description, "description", "", "description")
	fl.StringVar(&f.price, "price", "", "price")
	fl.StringVar(&f.originalPrice, "original-price", "", "price before discount (default: price)")
	fl.StringVar(&f.in.Format, "format", "", "format, e.g. LP or CD")
	fl.StringVar(&f.in.Category, "category", "", "category")
	fl.IntVar(&f.in.Stock, "stock", 0, "units in stock")
}

func (f *productFlags) input() (api.ProductInput, error) {
	in := f.in
	var err error
	if f.price != "" {
		if in.Price, err = decimal.NewFromString(f.price); err != nil {
			return in, fmt.Errorf("invalid --price %q", f.price)
		}
	}
	in.OriginalPrice = in.Price
	if f.originalPrice != "" {
		if in.OriginalPrice, err = decimal.NewFromString(f.originalPrice); err != nil {
			return in, fmt.Errorf("invalid --original-price %q", f.originalPrice)
		}
	}
	return in, nil
}

func newAdminCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Catalog maintenance (admin accounts only)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return get().requireAdmin(cmd.Context())
		},
	}
	cmd.AddCommand(newAdminProductCmd(get), newAdminOfferCmd(get))
	return cmd
}

func newAdminProductCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{Use: "product", Short: "Create, update and delete products"}

	var (
		create productFlags
		images []string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product with optional images",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			in, err := create.input()
			if err != nil {
				return err
			}
			files := make([]api.ImageFile, 0, len(images))
			for _, path := range images {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open image: %w", err)
				}
				defer f.Close()
				files = append(files, api.ImageFile{Name: filepath.Base(path), Content: f})
			}
			p, err := a.catalog.Create(cmd.Context(), in, files)
			return render(a, cmd, p, err, "Product created", printProduct)
		},
	}
	create.register(createCmd)
	createCmd.Flags().StringSliceVar(&images, "image", nil, "image file to upload (repeatable)")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("price")

	var update productFlags
	updateCmd := &cobra.Command{
		Use:   "update PRODUCT_ID",
		Short: "Replace a product's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			in, err := update.input()
			if err != nil {
				return err
			}
			p, err := a.catalog.Update(cmd.Context(), args[0], in)
			return render(a, cmd, p, err, "Product updated", printProduct)
		},
	}
	update.register(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete PRODUCT_ID",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			err := a.catalog.Delete(cmd.Context(), args[0])
			return render(a, cmd, struct{}{}, err, "Product deleted", nil)
		},
	}

	cmd.AddCommand(createCmd, updateCmd, deleteCmd)
	return cmd
}

func newAdminOfferCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{Use: "offer", Short: "Put products on offer"}

	var (
		offer      models.Offer
		discount   string
		validUntil string
	)
	add := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Attach an offer to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := decimal.NewFromString(discount)
			if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
				return fmt.Errorf("invalid --discount %q, want a percentage between 0 and 100", discount)
			}
			offer.DiscountPercent = d
			if validUntil != "" {
				until, err := time.Parse("2006-01-02", validUntil)
				if err != nil {
					return fmt.Errorf("invalid --valid-until %q, want YYYY-MM-DD", validUntil)
				}
				offer.ValidUntil = &until
			}
			p, err := a.catalog.AddOffer(cmd.Context(), args[0], offer)
			return render(a, cmd, p, err, "Offer added", printProduct)
		},
	}
	add.Flags().StringVar(&offer.Title, "title", "", "offer title")
	add.Flags().StringVar(&discount, "discount", "", "discount percent")
	add.Flags().StringVar(&validUntil, "valid-until", "", "last day of the offer, YYYY-MM-DD")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("discount")

	remove := &cobra.Command{
		Use:   "remove PRODUCT_ID",
		Short: "Remove a product's offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			p, err := a.catalog.RemoveOffer(cmd.Context(), args[0])
			return render(a, cmd, p, err, "Offer removed", printProduct)
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}
