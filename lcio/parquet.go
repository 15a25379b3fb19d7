package lcio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// CadenceRow is the Parquet schema of one light-curve cadence.
type CadenceRow struct {
	Time    float64 `parquet:"time,snappy"`
	Flux    float64 `parquet:"flux,snappy"`
	FluxErr float64 `parquet:"flux_err,snappy"`
	Quality uint32  `parquet:"quality,snappy"`
}

// BinRow is the Parquet schema of one bin.
type BinRow struct {
	Center  float64 `parquet:"center,snappy"`
	Flux    float64 `parquet:"flux,snappy"`
	FluxErr float64 `parquet:"flux_err,snappy"`
	Count   int32   `parquet:"count,snappy"`
}

// WriteParquet writes one row per cadence of ts.
func WriteParquet(w io.Writer, ts lightcurve.TimeSeries) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	rows := make([]CadenceRow, ts.Len())
	for i := range rows {
		rows[i] = CadenceRow{Time: ts.Time[i], Flux: ts.Flux[i], FluxErr: ts.FluxErr[i], Quality: ts.Quality[i]}
	}
	return writeRows(w, rows)
}

// WriteBinnedParquet writes one row per bin of b.
func WriteBinnedParquet(w io.Writer, b lightcurve.BinnedSeries) error {
	rows := make([]BinRow, b.Len())
	for i := range rows {
		rows[i] = BinRow{Center: b.Center[i], Flux: b.Flux[i], FluxErr: b.FluxErr[i], Count: int32(b.Count[i])}
	}
	return writeRows(w, rows)
}

func writeRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ReadParquet reads a cadence table of the given byte size written by
// [WriteParquet].
func ReadParquet(r io.ReaderAt, size int64) (lightcurve.TimeSeries, error) {
	rows, err := readRows[CadenceRow](r, size)
	if err != nil {
		return lightcurve.TimeSeries{}, err
	}
	n := len(rows)
	tm, flux, fluxErr := make([]float64, n), make([]float64, n), make([]float64, n)
	quality := make([]uint32, n)
	for i, row := range rows {
		tm[i], flux[i], fluxErr[i], quality[i] = row.Time, row.Flux, row.FluxErr, row.Quality
	}
	return lightcurve.NewUnsorted(tm, flux, fluxErr, quality)
}

// ReadBinnedParquet reads a bin table written by [WriteBinnedParquet].
// The bin width is not stored and is left zero.
func ReadBinnedParquet(r io.ReaderAt, size int64) (lightcurve.BinnedSeries, error) {
	rows, err := readRows[BinRow](r, size)
	if err != nil {
		return lightcurve.BinnedSeries{}, err
	}
	var b lightcurve.BinnedSeries
	for _, row := range rows {
		b.Center = append(b.Center, row.Center)
		b.Flux = append(b.Flux, row.Flux)
		b.FluxErr = append(b.FluxErr, row.FluxErr)
		b.Count = append(b.Count, int(row.Count))
	}
	return b, nil
}

func readRows[T any](r io.ReaderAt, size int64) ([]T, error) {
	section := io.NewSectionReader(r, 0, size)
	// The generic reader panics on malformed input, so check the footer first.
	if _, err := parquet.OpenFile(section, size); err != nil {
		return nil, fmt.Errorf("failed to open parquet data: %w", err)
	}
	reader := parquet.NewGenericReader[T](section)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return rows[:n], nil
}

// WriteParquetFile writes ts to a new file at path.
func WriteParquetFile(path string, ts lightcurve.TimeSeries) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteParquet(file, ts); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ReadParquetFile reads a cadence table from path.
func ReadParquetFile(path string) (lightcurve.TimeSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return lightcurve.TimeSeries{}, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()
	info, err := file.Stat()
	if err != nil {
		return lightcurve.TimeSeries{}, fmt.Errorf("failed to stat parquet file: %w", err)
	}
	return ReadParquet(file, info.Size())
}
