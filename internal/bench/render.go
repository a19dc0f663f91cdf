package bench

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
)

// Render writes the report as an aligned text table titled
// "<title> (Test Set: <n> <unit>)". A bucket empty for every result, such as
// the short bucket of a sweep run with a threshold of 1, gets no columns.
func (r *Report) Render(w io.Writer, title, unit string) error {
	if unit == "" {
		unit = "lines"
	}
	fmt.Fprintf(w, "%s (Test Set: %d %s)\n\n", title, r.Lines, unit)

	short := r.hasBucket(func(x Ratios) float64 { return x.Short })
	long := r.hasBucket(func(x Ratios) float64 { return x.Long })

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"Dict Size", "Max Seq", "Codes"}
	bucketHeader := func(prefix string) {
		header = append(header, prefix+"wrdz")
		for _, name := range r.Baselines {
			header = append(header, prefix+name)
		}
		if r.Reference != "" {
			header = append(header, prefix+"Δ%")
		}
	}
	if short {
		bucketHeader("Short ")
	}
	if long {
		bucketHeader("Long ")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, res := range r.Results {
		row := []string{
			fmt.Sprint(res.DictSize),
			fmt.Sprint(res.MaxSubLen),
			fmt.Sprint(res.Codes),
		}
		bucketRow := func(get func(Ratios) float64) {
			row = append(row, formatRatio(get(res.Wrdz)))
			for _, b := range res.Baselines {
				row = append(row, formatRatio(get(b)))
			}
			if r.Reference != "" {
				row = append(row, formatImprovement(get(res.Improvement)))
			}
		}
		if short {
			bucketRow(func(x Ratios) float64 { return x.Short })
		}
		if long {
			bucketRow(func(x Ratios) float64 { return x.Long })
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}

// hasBucket reports whether any result measured a line in the bucket.
func (r *Report) hasBucket(get func(Ratios) float64) bool {
	for _, res := range r.Results {
		if !math.IsInf(get(res.Wrdz), 1) {
			return true
		}
	}
	return false
}

func formatRatio(v float64) string { return fmt.Sprintf("%.3f", v) }

func formatImprovement(v float64) string { return fmt.Sprintf("%+.1f", v) }
