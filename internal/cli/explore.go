package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TrevorS/umap"
	"github.com/TrevorS/umap/internal/session"
)

func newExploreCmd(opts *options) *cobra.Command {
	var flags paramFlags
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Recompute embeddings for parameter changes read from stdin",
		Long: `Read one parameter change per line from stdin, as a YAML flow mapping, and
recompute the embedding. Unchanged stages are served from cache, and a
rejected change keeps the last good embedding, which is written on EOF.

Example:
  printf '{min_dist: 0.3}\n{neighbors: 30}\n{points: 20}\n' | umapx explore -n 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := loadParams(opts.paramsFile)
			if err != nil {
				return err
			}
			flags.apply(cmd, &params)

			cfg, err := opts.config()
			if err != nil {
				return err
			}
			p, err := umap.NewPipeline(cfg)
			if err != nil {
				return err
			}
			sess := session.New(p, cfg.Logger)
			out := cmd.OutOrStdout()
			if opts.output == "" {
				// Status lines and the final embedding would interleave.
				out = cmd.ErrOrStderr()
			}

			apply := func(next umap.Params) {
				res, err := sess.Update(cmd.Context(), next)
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					return
				}
				params = next
				fmt.Fprintf(out, "%gs for computing umap (points=%d dims=%d neighbors=%d min_dist=%g)\n",
					res.Elapsed.Seconds(), next.Points, next.Dims, next.Neighbors, next.MinDist)
			}

			apply(params)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				next := params
				if err := overlayParams(&next, []byte(line)); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				apply(next)
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			last := sess.Last()
			if last == nil {
				return fmt.Errorf("no embedding computed: %w", sess.Err())
			}
			return opts.writeEmbedding(last.Embedding)
		},
	}
	flags.register(cmd)
	return cmd
}
