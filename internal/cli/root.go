// Package cli implements the umapx command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TrevorS/umap"
)

// options shared by every command.
type options struct {
	paramsFile string
	logLevel   string
	logJSON    bool
	format     string
	output     string

	epochs    int
	metric    string
	algorithm string
	workers   int

	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the umapx command tree writing to the given streams.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "umapx",
		Short: "umapx - explore UMAP projections of random point clouds",
		Long: `umapx projects uniform random high-dimensional point clouds into 2D with
UMAP and writes the embedding as (x, y, index) tuples.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.paramsFile, "params", "", "YAML file with points, dims, neighbors, min_dist and seed")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")
	pf.StringVarP(&opts.format, "format", "f", "csv", "embedding output format: csv or json")
	pf.StringVarP(&opts.output, "output", "o", "", "write the embedding to this file instead of stdout")
	pf.IntVar(&opts.epochs, "epochs", 0, "optimization epochs (0 picks by dataset size)")
	pf.StringVar(&opts.metric, "metric", "euclidean", "input distance: euclidean, manhattan, chebyshev or cosine")
	pf.StringVar(&opts.algorithm, "neighbor-algorithm", string(umap.NeighborAuto), "auto, brute, kdtree or balltree")
	pf.IntVar(&opts.workers, "workers", 0, "neighbor search goroutines (0 = all CPUs)")

	root.AddCommand(newEmbedCmd(opts), newExploreCmd(opts))
	return root
}

// Execute runs umapx with os.Args.
func Execute() error {
	return NewRootCmd(os.Stdout, os.Stderr).Execute()
}

func (o *options) logger() (*umap.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", o.logLevel, err)
	}
	if o.logJSON {
		return umap.NewJSONLogger(o.stderr, level), nil
	}
	return umap.NewTextLogger(o.stderr, level), nil
}

func parseMetric(name string) (umap.DistanceMetric, error) {
	switch strings.ToLower(name) {
	case "euclidean", "l2":
		return umap.EuclideanMetric{}, nil
	case "manhattan", "l1":
		return umap.ManhattanMetric{}, nil
	case "chebyshev":
		return umap.ChebyshevMetric{}, nil
	case "cosine":
		return umap.CosineMetric{}, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}

func (o *options) config() (umap.Config, error) {
	cfg := umap.DefaultConfig()
	logger, err := o.logger()
	if err != nil {
		return cfg, err
	}
	metric, err := parseMetric(o.metric)
	if err != nil {
		return cfg, err
	}
	cfg.Logger = logger
	cfg.Metric = metric
	cfg.NeighborAlgorithm = umap.NeighborAlgorithm(o.algorithm)
	cfg.Epochs = o.epochs
	cfg.Workers = o.workers
	return cfg, nil
}

// writeEmbedding writes emb to --output, or stdout.
func (o *options) writeEmbedding(emb *umap.Embedding) (err error) {
	w := o.stdout
	if o.output != "" {
		f, createErr := os.Create(o.output)
		if createErr != nil {
			return createErr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return writeTuples(w, o.format, emb.Tuples())
}
