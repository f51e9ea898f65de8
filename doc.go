// Package eduviz provides a toolkit for loading, cleaning and analysing
// student performance data.
//
// The pipeline starts from CSV files of grade records and flows through
// typed tables into the analysis and reporting layers:
//
//   - pkg/loader reads CSV files into schema-typed tables, handling
//     legacy encodings, delimiter variants and per-column type overrides
//   - pkg/table is the in-memory columnar table with ordered schemas,
//     typed cells and explicit nulls
//   - pkg/clean deduplicates, fills and filters raw grade data and
//     validates dataset quality
//   - pkg/analyze computes cohort statistics, at-risk screening, trend
//     fitting, subject correlations, grade predictions and clustering
//   - pkg/report assembles analysis results into exportable reports
//   - pkg/export writes tables back to CSV or JSON, optionally gzipped
//
// The eduviz command in cmd/eduviz ties the layers together behind a
// cobra CLI.
package eduviz
