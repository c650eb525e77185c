package cli

import (
	"github.com/spf13/cobra"

	"github.com/TrevorS/umap"
)

func newEmbedCmd(opts *options) *cobra.Command {
	var flags paramFlags
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed one random point cloud and print the 2D tuples",
		Long: `Generate a uniform random point cloud and print its UMAP embedding.

Examples:
  umapx embed -n 1000 -d 100 -k 15 --min-dist 0.1
  umapx embed --params run.yaml --format json -o embedding.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := loadParams(opts.paramsFile)
			if err != nil {
				return err
			}
			flags.apply(cmd, &params)
			if err := params.Validate(); err != nil {
				return err
			}

			cfg, err := opts.config()
			if err != nil {
				return err
			}
			p, err := umap.NewPipeline(cfg)
			if err != nil {
				return err
			}
			_, emb, err := p.Run(cmd.Context(), params)
			if err != nil {
				return err
			}
			return opts.writeEmbedding(emb)
		},
	}
	flags.register(cmd)
	return cmd
}
