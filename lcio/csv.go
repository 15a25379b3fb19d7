package lcio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("lcio: missing column")

var cadenceHeader = []string{"time", "flux", "flux_err", "quality"}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// WriteCSV writes ts with a time,flux,flux_err,quality header.
func WriteCSV(w io.Writer, ts lightcurve.TimeSeries) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(cadenceHeader); err != nil {
		return err
	}
	for i := range ts.Len() {
		rec := []string{
			formatFloat(ts.Time[i]),
			formatFloat(ts.Flux[i]),
			formatFloat(ts.FluxErr[i]),
			strconv.FormatUint(uint64(ts.Quality[i]), 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBinnedCSV writes b with a center,flux,flux_err,count header.
func WriteBinnedCSV(w io.Writer, b lightcurve.BinnedSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"center", "flux", "flux_err", "count"}); err != nil {
		return err
	}
	for i := range b.Len() {
		rec := []string{
			formatFloat(b.Center[i]),
			formatFloat(b.Flux[i]),
			formatFloat(b.FluxErr[i]),
			strconv.Itoa(b.Count[i]),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a cadence table. Column names are matched case
// insensitively, so files with extra columns or a different order load.
// Empty fields read as NaN (or zero quality).
func ReadCSV(r io.Reader) (lightcurve.TimeSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return lightcurve.TimeSeries{}, fmt.Errorf("lcio: read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"time", "flux"} {
		if _, ok := col[name]; !ok {
			return lightcurve.TimeSeries{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	errCol, hasErr := col["flux_err"]
	qCol, hasQ := col["quality"]

	var tm, flux, fluxErr []float64
	var quality []uint32
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return lightcurve.TimeSeries{}, fmt.Errorf("lcio: line %d: %w", line, err)
		}

		t, err := parseFloat(rec[col["time"]])
		if err != nil {
			return lightcurve.TimeSeries{}, fmt.Errorf("lcio: line %d: time: %w", line, err)
		}
		f, err := parseFloat(rec[col["flux"]])
		if err != nil {
			return lightcurve.TimeSeries{}, fmt.Errorf("lcio: line %d: flux: %w", line, err)
		}
		e := math.NaN()
		if hasErr {
			if e, err = parseFloat(rec[errCol]); err != nil {
				return lightcurve.TimeSeries{}, fmt.Errorf("lcio: line %d: flux_err: %w", line, err)
			}
		}
		var q uint64
		if hasQ && strings.TrimSpace(rec[qCol]) != "" {
			if q, err = strconv.ParseUint(strings.TrimSpace(rec[qCol]), 10, 32); err != nil {
				return lightcurve.TimeSeries{}, fmt.Errorf("lcio: line %d: quality: %w", line, err)
			}
		}

		tm = append(tm, t)
		flux = append(flux, f)
		fluxErr = append(fluxErr, e)
		quality = append(quality, uint32(q))
	}
	return lightcurve.NewUnsorted(tm, flux, fluxErr, quality)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
