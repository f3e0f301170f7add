package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rogerio-castellano/cart-store/internal/cart"
	"github.com/rogerio-castellano/cart-store/internal/catalog"
	"github.com/rogerio-castellano/cart-store/internal/config"
	"github.com/rogerio-castellano/cart-store/internal/logging"
	"github.com/rogerio-castellano/cart-store/internal/models"
	"github.com/rogerio-castellano/cart-store/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configFile  string
	storagePath string
	catalogURL  string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Manage the shopping cart from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ./cart.yaml when present)")
	root.PersistentFlags().StringVar(&opts.storagePath, "file", "", "cart file, overrides storage.path")
	root.PersistentFlags().StringVar(&opts.catalogURL, "catalog", "", "catalog API base URL, overrides catalog.base_url")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the cart and its total",
			Args:  cobra.NoArgs,
			RunE: withStore(opts, func(cmd *cobra.Command, s *cart.Store, _ []int) error {
				return printCart(cmd.OutOrStdout(), s.Cart())
			}),
		},
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Add one unit of a product",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(opts, func(cmd *cobra.Command, s *cart.Store, args []int) error {
				if err := s.AddProduct(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), s.Cart())
			}),
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(opts, func(cmd *cobra.Command, s *cart.Store, args []int) error {
				if err := s.RemoveProduct(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), s.Cart())
			}),
		},
		&cobra.Command{
			Use:   "set <product-id> <amount>",
			Short: "Set the amount of a product already in the cart",
			Args:  cobra.ExactArgs(2),
			RunE: withStore(opts, func(cmd *cobra.Command, s *cart.Store, args []int) error {
				u := cart.UpdateAmount{ProductID: args[0], Amount: args[1]}
				if err := s.UpdateProductAmount(cmd.Context(), u); err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), s.Cart())
			}),
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Lower amounts that exceed the current stock",
			Args:  cobra.NoArgs,
			RunE: withStore(opts, func(cmd *cobra.Command, s *cart.Store, _ []int) error {
				adj, err := s.Reconcile(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, a := range adj {
					fmt.Fprintf(out, "product %d: %d -> %d\n", a.ProductID, a.From, a.To)
				}
				return printCart(out, s.Cart())
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart and delete it from storage",
			Args:  cobra.NoArgs,
			RunE: withStore(opts, func(cmd *cobra.Command, s *cart.Store, _ []int) error {
				return s.Clear(cmd.Context())
			}),
		},
	)
	return root
}

// withStore parses integer arguments, opens the configured store and runs fn.
// Store notices are printed to stderr the way the storefront shows toasts.
func withStore(opts *options, fn func(*cobra.Command, *cart.Store, []int) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		nums := make([]int, len(args))
		for i, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("%q is not a number", a)
			}
			nums[i] = n
		}

		cfg, err := config.Load(opts.configFile)
		if err != nil {
			return err
		}
		// A memory cart would not outlive the command.
		if cfg.Storage.Driver == "memory" {
			cfg.Storage.Driver = "file"
		}
		if opts.storagePath != "" {
			cfg.Storage.Driver, cfg.Storage.Path = "file", opts.storagePath
		}
		if opts.catalogURL != "" {
			cfg.Catalog.BaseURL = opts.catalogURL
		}
		level := "warn"
		if opts.verbose {
			level = "debug"
		}
		logger, err := logging.New(level, true)
		if err != nil {
			return err
		}
		defer logger.Sync()

		s, closeStorage, err := openStore(cmd.Context(), cfg, logger, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeStorage()
		return fn(cmd, s, nums)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, notices io.Writer) (*cart.Store, func() error, error) {
	zero, err := cart.ParseZeroPolicy(cfg.Cart.ZeroAmountPolicy)
	if err != nil {
		return nil, nil, err
	}
	overStock, err := cart.ParseOverStockPolicy(cfg.Cart.OverStockPolicy)
	if err != nil {
		return nil, nil, err
	}

	kv, closeStorage, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	client := catalog.NewClient(cfg.Catalog.BaseURL,
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithLogger(logger.Named("catalog")),
	)
	s, err := cart.New(ctx, kv, client,
		cart.WithKey(cfg.Cart.Key),
		cart.WithLogger(logger.Named("cart")),
		cart.WithPolicy(cart.Policy{Zero: zero, OverStock: overStock}),
		cart.WithMaxAttempts(cfg.Cart.MaxAttempts),
		cart.WithNotifier(cart.NotifierFunc(func(_ context.Context, n cart.Notice) {
			fmt.Fprintln(notices, n.Message)
		})),
	)
	if err != nil {
		closeStorage()
		return nil, nil, err
	}
	return s, closeStorage, nil
}

func printCart(out io.Writer, items []models.Product) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "Cart is empty")
		return err
	}
	totals := cart.Summarize(items)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tPRICE\tAMOUNT\tSUBTOTAL")
	for i, p := range items {
		name := p.Title
		if name == "" {
			name = p.Name
		}
		line := totals.Lines[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", p.ID, name, line.Price.StringFixed(2), p.Amount, line.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t\t%d items\t%s\n", totals.Size, totals.Total.StringFixed(2))
	return w.Flush()
}
