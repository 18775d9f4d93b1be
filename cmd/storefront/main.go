package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/cart"
	"github.com/safar/go-storefront/internal/catalog"
	"github.com/safar/go-storefront/internal/checkout"
	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/localstore"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, cleanup := newRootCmd()
	err := root.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		}
		os.Exit(1)
	}
}

// app is everything a command needs, built once per invocation.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	store     localstore.Store
	session   *session.Manager
	cart      *cart.Synchronizer
	catalog   *catalog.Service
	orders    *api.OrderAPI
	history   *catalog.OrderHistory
	addresses *api.AddressAPI
	checkout  *checkout.Orchestrator
	policy    cart.MergePolicy
	jsonOut   bool
}

type tokenFunc func(ctx context.Context) (string, error)

func (f tokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

func newApp(ctx context.Context, verbose, jsonOut bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Env, verbose)
	if err != nil {
		return nil, err
	}

	policy, err := cart.ParseMergePolicy(cfg.Cart.MergePolicy)
	if err != nil {
		return nil, err
	}

	store, err := localstore.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var sessions *session.Manager
	client, err := api.NewClient(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		Tokens:    tokenFunc(func(ctx context.Context) (string, error) { return sessions.Token(ctx) }),
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Strict:    cfg.API.StrictDecode,
		Logger:    log,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	sessions = session.NewManager(store, api.NewAuthAPI(client), log)

	a := &app{
		cfg:       cfg,
		log:       log,
		store:     store,
		session:   sessions,
		orders:    api.NewOrderAPI(client),
		addresses: api.NewAddressAPI(client),
		policy:    policy,
		jsonOut:   jsonOut,
	}
	a.cart = cart.New(store, api.NewCartAPI(client), cart.Options{Strict: cfg.API.StrictDecode, Logger: log})
	a.catalog = catalog.NewService(api.NewProductAPI(client), store, log)
	a.history = catalog.NewOrderHistory(a.orders)
	a.checkout = checkout.New(a.cart, a.addresses, a.orders, store, checkout.Pricing{
		TaxPrice:      cfg.Checkout.TaxPrice,
		ShippingPrice: cfg.Checkout.ShippingPrice,
	}, log)

	if err := a.restore(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// restore puts the cart on the right backend for the stored session.
func (a *app) restore(ctx context.Context) error {
	current, err := a.session.Current(ctx)
	if errors.Is(err, session.ErrNotAuthenticated) {
		return a.cart.Refresh(ctx)
	}
	if err != nil {
		return err
	}
	if err := a.cart.Resume(ctx, current.User.ID); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			a.log.Info("Server rejected stored session, continuing as guest")
			if err := a.session.Logout(ctx); err != nil {
				return err
			}
			return a.cart.Logout(ctx)
		}
		// stay usable offline; cart commands will report the failure
		a.log.Warn("Could not load server cart", zap.Error(err))
	}
	return nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("Failed to close local store", zap.Error(err))
	}
	_ = a.log.Sync()
}

// newRootCmd returns the command tree and a cleanup that releases whatever the
// invocation opened. Cobra skips post-run hooks when a command fails, so the
// cleanup runs after Execute instead.
func newRootCmd() (*cobra.Command, func()) {
	var (
		verbose bool
		jsonOut bool
		a       *app
	)

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Shop the storefront from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(cmd.Context(), verbose, jsonOut)
			return err
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as {success, message, data} JSON")

	get := func() *app { return a }
	root.AddCommand(
		newSignupCmd(get),
		newLoginCmd(get),
		newLogoutCmd(get),
		newWhoamiCmd(get),
		newProductsCmd(get),
		newOffersCmd(get),
		newCartCmd(get),
		newCheckoutCmd(get),
		newOrdersCmd(get),
		newAddressCmd(get),
		newAdminCmd(get),
	)
	cleanup := func() {
		if a != nil {
			a.close()
			a = nil
		}
	}
	return root, cleanup
}

func userMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.MessageOf(err)
	}
	return err.Error()
}
