package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TrevorS/umap"
)

// loadParams reads a YAML parameter file over the defaults. Keys absent
// from the file keep their default values.
func loadParams(path string) (umap.Params, error) {
	p := umap.DefaultParams()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := overlayParams(&p, data); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// overlayParams decodes YAML into p, rejecting unknown keys.
func overlayParams(p *umap.Params, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(p)
}

// paramFlags binds the per-run parameters to cmd.
type paramFlags struct {
	points    int
	dims      int
	neighbors int
	minDist   float64
	seed      int64
}

func (f *paramFlags) register(cmd *cobra.Command) {
	def := umap.DefaultParams()
	fl := cmd.Flags()
	fl.IntVarP(&f.points, "points", "n", def.Points, "number of points")
	fl.IntVarP(&f.dims, "dims", "d", def.Dims, "number of dimensions")
	fl.IntVarP(&f.neighbors, "neighbors", "k", def.Neighbors, "number of neighbors")
	fl.Float64Var(&f.minDist, "min-dist", def.MinDist, "minimum distance in the embedding, in [0, 1]")
	fl.Int64Var(&f.seed, "seed", def.Seed, "random seed for the dataset and the layout")
}

// apply overrides p with every flag set on the command line.
func (f *paramFlags) apply(cmd *cobra.Command, p *umap.Params) {
	fl := cmd.Flags()
	if fl.Changed("points") {
		p.Points = f.points
	}
	if fl.Changed("dims") {
		p.Dims = f.dims
	}
	if fl.Changed("neighbors") {
		p.Neighbors = f.neighbors
	}
	if fl.Changed("min-dist") {
		p.MinDist = f.minDist
	}
	if fl.Changed("seed") {
		p.Seed = f.seed
	}
}
