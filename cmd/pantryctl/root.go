package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository/docstore"
	"github.com/mamadbah2/pantry/internal/service/inventory"
	"github.com/mamadbah2/pantry/internal/service/reporting"
	"github.com/mamadbah2/pantry/pkg/logger"
)

type storeOpener func(ctx context.Context, cfg config.Config, logger *zap.Logger) (docstore.Store, error)

// app carries what every subcommand needs once the root pre-run has opened the store.
type app struct {
	envFile  string
	logLevel string
	open     storeOpener

	store     docstore.Store
	inventory *inventory.Service
	reporting *reporting.Service
}

func newRootCmd(open storeOpener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:           "pantryctl",
		Short:         "Inspect and edit the pantry inventory from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.store == nil {
				return nil
			}
			return a.store.Close(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env", "", "path to a .env file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level written to stderr")

	var yes bool
	removeCmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Take one unit of an item; the last unit deletes it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to remove %s without --yes", args[0])
			}
			if err := a.inventory.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), a.inventory, inventory.MsgRemoved, args[0])
			return nil
		},
	}
	removeCmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the removal")

	root.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List every item in the pantry",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				printItems(cmd.OutOrStdout(), a.inventory.Items(), "The pantry is empty.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "add NAME [QTY]",
			Short: "Add units of an item, creating it when absent",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty := 1
				if len(args) == 2 {
					n, err := strconv.Atoi(args[1])
					if err != nil {
						return fmt.Errorf("quantity must be a number: %w", err)
					}
					qty = n
				}
				if err := a.inventory.Add(cmd.Context(), args[0], qty); err != nil {
					return err
				}
				printOutcome(cmd.OutOrStdout(), a.inventory, inventory.MsgAdded, args[0])
				return nil
			},
		},
		removeCmd,
		&cobra.Command{
			Use:   "set NAME QTY",
			Short: "Overwrite the quantity of an item; zero deletes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity must be a number: %w", err)
				}
				if err := a.inventory.Set(cmd.Context(), args[0], qty); err != nil {
					return err
				}
				printOutcome(cmd.OutOrStdout(), a.inventory, inventory.MsgUpdated, args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:     "search QUERY",
			Aliases: []string{"find"},
			Short:   "List items whose name contains QUERY, ignoring case",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				printItems(cmd.OutOrStdout(), a.inventory.Search(args[0]), fmt.Sprintf("No item matches %q.", args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Show the details of one item",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				item, ok := a.inventory.Find(args[0])
				if !ok {
					return fmt.Errorf("%w: %q", models.ErrItemNotFound, args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\nQuantity: %d\n", item.DisplayName(), item.Quantity)
				return nil
			},
		},
		&cobra.Command{
			Use:   "summary",
			Short: "Print totals and the items running low",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				summary := a.reporting.Summarize(a.inventory.Items())
				fmt.Fprintln(cmd.OutOrStdout(), reporting.FormatSummary(summary, time.Now()))
				return nil
			},
		},
	)

	return root
}

// setup loads the configuration, opens the store and loads the inventory.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	log, err := logger.New(a.logLevel)
	if err != nil {
		return err
	}

	store, err := a.open(ctx, *cfg, log.Named("repo."+cfg.Store.Backend))
	if err != nil {
		return err
	}

	a.store = store
	a.inventory = inventory.NewService(store, inventory.Options{
		Collection:    cfg.Store.Collection,
		AtomicUpdates: cfg.Store.AtomicUpdates,
	}, log.Named("svc.inventory"))
	a.reporting = reporting.NewService(nil, cfg.Reporting.LowStockThreshold, log.Named("svc.reporting"))

	_, err = a.inventory.List(ctx)
	return err
}

func printItems(w io.Writer, items []models.Item, empty string) {
	if len(items) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "%s: %d\n", item.DisplayName(), item.Quantity)
	}
}

func printOutcome(w io.Writer, inv *inventory.Service, outcome, name string) {
	if item, ok := inv.Find(name); ok {
		fmt.Fprintf(w, "%s %s: %d\n", outcome, item.DisplayName(), item.Quantity)
		return
	}
	fmt.Fprintf(w, "%s %s is no longer in the pantry.\n", outcome, name)
}
