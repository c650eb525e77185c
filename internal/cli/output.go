package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/TrevorS/umap"
)

func writeTuples(w io.Writer, format string, tuples []umap.PlotPoint) error {
	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"x", "y", "index"}); err != nil {
			return err
		}
		for _, t := range tuples {
			rec := []string{
				strconv.FormatFloat(t.X, 'g', -1, 64),
				strconv.FormatFloat(t.Y, 'g', -1, 64),
				strconv.Itoa(t.Index),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tuples)
	default:
		return fmt.Errorf("unknown output format %q (want csv or json)", format)
	}
}
