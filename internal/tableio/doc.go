// Package tableio converts lazyframe.Table values from and to external formats.
//
// Import: CSV (ReadCSV) and Apache Parquet (ReadParquet), both with an optional time index
// column. Export: aligned text tables, JSON and CSV (Render).
package tableio
