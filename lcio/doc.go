// Package lcio reads and writes light curves as CSV and Parquet.
//
// CSV files carry a header row; time and flux columns are required,
// flux_err and quality are optional. Parquet files use one row per cadence
// (or per bin) with snappy-compressed columns.
package lcio
