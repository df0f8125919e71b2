package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kalambet/lookbook/internal/config"
	"github.com/kalambet/lookbook/internal/favorites"
	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/intel"
	"github.com/kalambet/lookbook/internal/preferences"
	"github.com/kalambet/lookbook/internal/storage"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/watchlist"
)

// storeKeys are the keys lookbook owns, in purge order.
var storeKeys = []string{
	feedback.StorageKey,
	preferences.StorageKey,
	watchlist.StorageKey,
	wardrobe.StorageKey,
	favorites.StorageKey,
	intel.StorageKey,
}

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export or purge stored data",
	Long: `Export or purge stored data.

These commands open the data directory directly. With the badger backend
stop the server first; sqlite can be read while the server runs.`,
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all stored data as JSONL",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		kv, closer, err := openKV(cfg.Storage)
		if err != nil {
			return fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
		}
		defer closer.Close()

		var writer io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		}

		n, err := exportEntries(cmd.Context(), kv, writer)
		if err != nil {
			return err
		}
		if output != "" {
			printSuccess("Exported %d keys to %s", n, output)
		}
		return nil
	},
}

// exportEntries writes one JSON object per stored key.
func exportEntries(ctx context.Context, kv storage.KV, w io.Writer) (int, error) {
	en, ok := kv.(storage.Enumerator)
	if !ok {
		return 0, fmt.Errorf("storage backend %T cannot list its contents", kv)
	}
	entries, err := en.Entries(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing entries: %w", err)
	}
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return 0, fmt.Errorf("writing %s: %w", e.Key, err)
		}
	}
	return len(entries), nil
}

var dataPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all stored data",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL stored data. Use --confirm to proceed.")
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		kv, closer, err := openKV(cfg.Storage)
		if err != nil {
			return fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
		}
		defer closer.Close()

		if failures := purgeKeys(cmd.Context(), kv, storeKeys); failures > 0 {
			return fmt.Errorf("%d keys could not be deleted", failures)
		}
		printSuccess("All data purged")
		return nil
	},
}

// purgeKeys removes each key and returns how many removals failed.
func purgeKeys(ctx context.Context, kv storage.KV, keys []string) int {
	failures := 0
	for _, k := range keys {
		printStep("Deleting %s...", k)
		if err := kv.Remove(ctx, k); err != nil {
			printError("Failed to delete %s: %v", k, err)
			failures++
		}
	}
	return failures
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	dataPurgeCmd.Flags().Bool("confirm", false, "confirm data purge")
	dataCmd.AddCommand(dataExportCmd, dataPurgeCmd)
}
