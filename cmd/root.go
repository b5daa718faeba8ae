package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"signvec/internal/config"
	"signvec/internal/loader"
	"signvec/internal/qdrant"

	qdrantpb "github.com/qdrant/go-client/qdrant"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Build metadata, set from main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "signvec [vectors_dir] [collection]",
	Short: "Upload precomputed sign vectors to a Qdrant collection",
	Long: `Reads every *.json vector file under vectors_dir (default "vectors"),
recreates the collection (default "sign_vectors") sized to the vectors and
upserts all of them in batches.

The store is taken from q_url / QDRANT_URL (default http://localhost:6333)
and q_api / QDRANT_API_KEY. A .env file in the working directory and
~/.signvec/config.json are read as well.

The existing collection is always dropped first.`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runUpload,
}

var verifyCmd = &cobra.Command{
	Use:   "verify [collection]",
	Short: "Show size, distance and point count of a collection",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerify,
}

var clearCmd = &cobra.Command{
	Use:   "clear [collection]",
	Short: "Delete a collection and all its points",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClear,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "signvec %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
	},
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	qc, err := qdrant.NewClient(cfg.StoreURL, cfg.APIKey)
	if err != nil {
		return err
	}
	defer qc.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "→ Connected to Qdrant: %s\n", cfg.StoreURL)

	opts := []loader.Option{
		loader.WithBatchSize(cfg.BatchSize),
		loader.WithOutput(out, cmd.ErrOrStderr()),
	}
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		opts = append(opts, loader.WithProgress(progressReporter(cmd.ErrOrStderr())))
	}

	_, err = loader.New(qc, opts...).Run(cmd.Context(), cfg.VectorsDir, cfg.CollectionName)
	return err
}

// progressReporter draws a bar on w, created once the total is known.
func progressReporter(w io.Writer) func(uploaded, total int) {
	var bar *progressbar.ProgressBar
	return func(uploaded, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan]Uploading[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		}
		_ = bar.Set(uploaded)
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(collectionArgs(args))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	qc, err := qdrant.NewClient(cfg.StoreURL, cfg.APIKey)
	if err != nil {
		return err
	}
	defer qc.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	name := cfg.CollectionName

	fmt.Fprintf(out, "Checking collection: %s\n", name)
	exists, err := qc.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("collection %s does not exist", name)
	}

	info, err := qc.Describe(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to describe collection: %w", err)
	}
	total, err := qc.Count(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to count points: %w", err)
	}

	fmt.Fprintf(out, "  Status:    %s\n", info.Status)
	fmt.Fprintf(out, "  Dimension: %dD\n", info.VectorSize)
	fmt.Fprintf(out, "  Distance:  %s\n", info.Distance)

	if showLabels, _ := cmd.Flags().GetBool("labels"); showLabels {
		pageSize, _ := cmd.Flags().GetUint32("page-size")
		counts, err := countLabels(ctx, qc, name, pageSize)
		if err != nil {
			return err
		}
		labels := make([]string, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		fmt.Fprintln(out, "  Labels:")
		for _, label := range labels {
			fmt.Fprintf(out, "    %-20s %d\n", label, counts[label])
		}
	}

	fmt.Fprintf(out, "\n✓ Total points in collection: %d\n", total)
	return nil
}

const defaultPageSize = 256

type pointScroller interface {
	Scroll(ctx context.Context, collectionName string, limit uint32, offset *qdrantpb.PointId) ([]*qdrantpb.RetrievedPoint, *qdrantpb.PointId, error)
}

// countLabels scrolls through the whole collection pageSize points at a time
// and tallies payload labels.
func countLabels(ctx context.Context, qc pointScroller, name string, pageSize uint32) (map[string]int, error) {
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	counts := make(map[string]int)
	var offset *qdrantpb.PointId

	for {
		points, next, err := qc.Scroll(ctx, name, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to scroll collection: %w", err)
		}
		for _, p := range points {
			label, _ := qdrant.PayloadToMap(p.GetPayload())["label"].(string)
			counts[label]++
		}
		if next == nil || len(points) == 0 {
			return counts, nil
		}
		offset = next
	}
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(collectionArgs(args))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	qc, err := qdrant.NewClient(cfg.StoreURL, cfg.APIKey)
	if err != nil {
		return err
	}
	defer qc.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Deleting collection: %s\n", cfg.CollectionName)
	deleted, err := qc.DeleteCollection(cmd.Context(), cfg.CollectionName)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintf(out, "⚠ Collection %s did not exist\n", cfg.CollectionName)
		return nil
	}
	fmt.Fprintln(out, "✓ Collection deleted")
	return nil
}

// collectionArgs places a lone collection argument where config.Load expects it.
func collectionArgs(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return []string{"", args[0]}
}

func init() {
	rootCmd.Flags().Bool("progress", false, "Show a progress bar while uploading")
	verifyCmd.Flags().Bool("labels", false, "Also count points per label")
	verifyCmd.Flags().Uint32("page-size", defaultPageSize, "Points fetched per scroll request when counting labels")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
