package quality

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// ScoreRecord is one metric value for one scored pair.
type ScoreRecord struct {
	Identifier string  `csv:"identifier"`
	Metric     Metric  `csv:"metric"`
	Value      float64 `csv:"value"`
}

// Skip is a file that was excluded from the aggregate, with the reason.
type Skip struct {
	Name string
	Err  error
}

// Report aggregates a batch of pair results.
type Report struct {
	Scored  int
	Skipped []Skip
	Records []ScoreRecord
	means   map[Metric]float64
}

// Aggregate partitions results into scored pairs and skips and averages every
// metric over the scored pairs only. The result does not depend on the order
// of results beyond the order of Skipped and Records.
func Aggregate(results []PairResult) *Report {
	r := &Report{}
	sums := make(map[Metric]float64, len(Metrics))
	for _, res := range results {
		if res.Err != nil {
			r.Skipped = append(r.Skipped, Skip{Name: res.Name, Err: res.Err})
			continue
		}
		r.Scored++
		values := map[Metric]float64{
			MetricPixelError: res.PixelError,
			MetricPSNR:       res.PSNR,
			MetricSSIM:       res.SSIM,
		}
		for _, m := range Metrics {
			sums[m] += values[m]
			r.Records = append(r.Records, ScoreRecord{Identifier: res.Name, Metric: m, Value: values[m]})
		}
	}

	if r.Scored > 0 {
		r.means = make(map[Metric]float64, len(Metrics))
		for _, m := range Metrics {
			r.means[m] = sums[m] / float64(r.Scored)
		}
	}
	return r
}

// Empty reports whether no pair was scored.
func (r *Report) Empty() bool {
	return r.Scored == 0
}

// Mean returns the average of m over the scored pairs. ok is false when no
// pair was scored.
func (r *Report) Mean(m Metric) (mean float64, ok bool) {
	mean, ok = r.means[m]
	return mean, ok
}

// SkippedNames lists the skipped files in report order.
func (r *Report) SkippedNames() []string {
	names := make([]string, len(r.Skipped))
	for i, s := range r.Skipped {
		names[i] = s.Name
	}
	return names
}

// Render prints the aggregate as a table, or states that nothing was scored.
func (r *Report) Render(w io.Writer) {
	if r.Empty() {
		fmt.Fprintf(w, "No valid image pairs found (%d skipped). Check file names and extensions.\n", len(r.Skipped))
		r.renderSkips(w)
		return
	}

	mse, _ := r.Mean(MetricPixelError)
	psnr, _ := r.Mean(MetricPSNR)
	ssim, _ := r.Mean(MetricSSIM)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Pairs scored", strconv.Itoa(r.Scored)},
		{"Pairs skipped", strconv.Itoa(len(r.Skipped))},
		{"Mean pixel error (MSE)", fmt.Sprintf("%.4f", mse)},
		{"Mean PSNR", formatDecibels(psnr)},
		{"Mean SSIM", fmt.Sprintf("%.4f", ssim)},
	})
	table.Render()
	r.renderSkips(w)
}

func (r *Report) renderSkips(w io.Writer) {
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "skipped %s: %v\n", s.Name, s.Err)
	}
}

// WriteCSV writes every per-pair record as identifier,metric,value rows.
func (r *Report) WriteCSV(w io.Writer) error {
	records := r.Records
	if records == nil {
		records = []ScoreRecord{}
	}
	return errors.Wrap(gocsv.Marshal(&records, w), "failed to write score records")
}

func formatDecibels(v float64) string {
	if math.IsInf(v, 1) {
		return "inf dB (identical)"
	}
	return fmt.Sprintf("%.2f dB", v)
}
