package main

import (
	"io"

	"github.com/safar/go-storefront/internal/models"
	"github.com/spf13/cobra"
)

func newAddressCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "List your shipping addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			s, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			list, err := a.addresses.ListByUser(cmd.Context(), s.User.ID)
			return render(a, cmd, list, err, "", func(w io.Writer, list []models.Address) {
				for _, addr := range list {
					printAddress(w, addr)
				}
			})
		},
	}

	var in models.Address
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a shipping address; the newest one is used at checkout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			s, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			in.User = s.User.ID
			if in.Email == "" {
				in.Email = s.User.Email
			}
			addr, err := a.addresses.Create(cmd.Context(), in)
			return render(a, cmd, addr, err, "Address saved", func(w io.Writer, addr *models.Address) {
				printAddress(w, *addr)
			})
		},
	}
	f := add.Flags()
	f.StringVar(&in.FullName, "full-name", "", "recipient")
	f.StringVar(&in.Email, "email", "", "contact email (default: account email)")
	f.StringVar(&in.PhoneNumber, "phone", "", "phone number")
	f.StringVar(&in.Street, "street", "", "street and number")
	f.StringVar(&in.Landmark, "landmark", "", "landmark")
	f.StringVar(&in.City, "city", "", "city")
	f.StringVar(&in.State, "state", "", "state")
	f.StringVar(&in.PinCode, "pin-code", "", "postal code")
	f.StringVar(&in.Country, "country", "", "country")
	f.StringVar(&in.Company, "company", "", "company")
	f.StringVar(&in.DeliveryInstructions, "instructions", "", "delivery instructions")
	f.BoolVar(&in.BillingSameAsShipping, "billing-same", true, "bill to the same address")
	for _, name := range []string{"full-name", "phone", "street", "city", "state", "pin-code", "country"} {
		_ = add.MarkFlagRequired(name)
	}

	cmd.AddCommand(add)
	return cmd
}
