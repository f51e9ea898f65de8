package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eduviz/eduviz/pkg/analyze"
	"github.com/eduviz/eduviz/pkg/clean"
	"github.com/eduviz/eduviz/pkg/config"
	"github.com/eduviz/eduviz/pkg/export"
	"github.com/eduviz/eduviz/pkg/loader"
	"github.com/eduviz/eduviz/pkg/logger"
	"github.com/eduviz/eduviz/pkg/report"
	"github.com/eduviz/eduviz/pkg/sample"
	"github.com/eduviz/eduviz/pkg/table"
)

var version = "0.1.0"

// dataFlags holds the CSV input settings shared by data-reading commands.
type dataFlags struct {
	path      string
	encoding  string
	delimiter string
	noHeader  bool
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "data", "d", "", "Path to the grades CSV file")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "Input encoding (utf-8, windows-1251, iso-8859-1, utf-16le, utf-16be)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV field delimiter")
	cmd.Flags().BoolVar(&f.noHeader, "no-header", false, "Treat the first row as data instead of column names")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var configFile, logLevel string

	root := &cobra.Command{
		Use:   "eduviz",
		Short: "EduViz - Student performance analysis toolkit",
		Long: `EduViz loads student grade data from CSV files, cleans and validates it,
and produces performance analytics, risk screening and exportable reports.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{
				Level:    logLevel,
				Encoding: "console",
			})
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML or JSON configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("EduViz v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newAnalyzeCmd(&configFile))
	root.AddCommand(newReportCmd(&configFile))
	root.AddCommand(newValidateCmd(&configFile))
	root.AddCommand(newConvertCmd(&configFile))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadAppConfig resolves the effective configuration: defaults, optionally
// overridden by a config file, then by command-line data flags.
func loadAppConfig(configFile string, flags *dataFlags) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags != nil {
		if flags.path != "" {
			cfg.DataSource.Path = flags.path
		}
		if flags.encoding != "" {
			cfg.DataSource.Encoding = flags.encoding
		}
		if flags.delimiter != "" {
			cfg.DataSource.Delimiter = flags.delimiter
		}
		if flags.noHeader {
			cfg.DataSource.HasHeader = false
		}
	}
	return cfg, cfg.Validate()
}

func loaderOptions(cfg *config.Config) loader.Options {
	opts := loader.DefaultOptions()
	opts.Encoding = cfg.DataSource.Encoding
	opts.Header = cfg.DataSource.HasHeader
	if cfg.DataSource.Delimiter != "" {
		opts.Delimiter = rune(cfg.DataSource.Delimiter[0])
	}
	// Grades are fractional even when a file happens to hold whole numbers.
	// Attendance and group are optional columns, so unknown overrides must
	// not fail the load.
	opts.TypeOverrides = map[string]table.FieldType{
		"grade":      table.FieldTypeFloat,
		"attendance": table.FieldTypeFloat,
		"student_id": table.FieldTypeString,
		"group":      table.FieldTypeString,
	}
	opts.AllowUnknownOverrides = true
	return opts
}

// dataContext tags the context with the dataset path and operation name so
// log lines emitted deeper in the pipeline carry them.
func dataContext(ctx context.Context, cfg *config.Config, operation string) context.Context {
	ctx = context.WithValue(ctx, logger.DatasetKey, cfg.DataSource.Path)
	return context.WithValue(ctx, logger.OperationKey, operation)
}

func loadCleanData(ctx context.Context, cfg *config.Config, operation string) (*table.Table, error) {
	ctx = dataContext(ctx, cfg, operation)
	tbl, err := loader.LoadStudentData(ctx, cfg.DataSource.Path, loaderOptions(cfg))
	if err != nil {
		return nil, err
	}

	cleaned, cleanReport, err := clean.Clean(tbl, clean.DefaultOptions())
	if err != nil {
		return nil, err
	}
	logger.Get().Info("data cleaned",
		zap.Int("rows", cleaned.NumRows()),
		zap.Int("duplicates_removed", cleanReport.DuplicatesRemoved),
		zap.Int("incomplete_dropped", cleanReport.IncompleteDropped))
	return cleaned, nil
}

func newGenerateCmd() *cobra.Command {
	var output string
	var students, weeks int
	var subjects []string
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic grades dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := sample.Generate(sample.Options{
				Students: students,
				Weeks:    weeks,
				Subjects: subjects,
				Seed:     seed,
			})
			if err != nil {
				return err
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := export.SaveAny(tbl, output, export.DefaultOptions()); err != nil {
				return err
			}

			fmt.Printf("Generated %d records for %d students over %d weeks\n",
				tbl.NumRows(), students, weeks)
			fmt.Printf("Saved to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "data/raw/grades.csv", "Output file (.csv, .json, optionally .gz)")
	cmd.Flags().IntVarP(&students, "students", "s", 100, "Number of students")
	cmd.Flags().IntVarP(&weeks, "weeks", "w", 16, "Number of semester weeks")
	cmd.Flags().StringSliceVar(&subjects, "subjects", nil, "Subject names (defaults to the built-in list)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = time-based)")
	return cmd
}

func newAnalyzeCmd(configFile *string) *cobra.Command {
	flags := &dataFlags{}
	var riskThreshold float64
	var output string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze student performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(*configFile, flags)
			if err != nil {
				return err
			}
			if riskThreshold != 0 {
				cfg.Analysis.RiskThreshold = riskThreshold
			}

			tbl, err := loadCleanData(cmd.Context(), cfg, "analyze")
			if err != nil {
				return err
			}

			analysis, err := analyze.AnalyzePerformance(tbl, analyze.Options{
				RiskThreshold: cfg.Analysis.RiskThreshold,
				MinRecords:    cfg.Analysis.MinRecords,
			})
			if err != nil {
				return err
			}

			printAnalysisSummary(analysis)

			if output != "" {
				if err := saveAnalysis(analysis, output); err != nil {
					return err
				}
				fmt.Printf("\nAnalysis saved to %s\n", output)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64Var(&riskThreshold, "risk-threshold", 0, "Average grade below which students are flagged (1-10)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write full analysis JSON to this path")
	return cmd
}

func saveAnalysis(a *analyze.PerformanceAnalysis, path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func printAnalysisSummary(a *analyze.PerformanceAnalysis) {
	fmt.Println("Performance summary")
	fmt.Printf("  Students:      %d\n", a.Overall.TotalStudents)
	fmt.Printf("  Subjects:      %d\n", a.Overall.TotalSubjects)
	fmt.Printf("  Records:       %d\n", a.Overall.TotalRecords)
	fmt.Printf("  Mean grade:    %.2f\n", a.Overall.MeanGrade)
	fmt.Printf("  Median grade:  %.2f\n", a.Overall.MedianGrade)
	fmt.Printf("  At risk:       %d\n", len(a.RiskStudents))

	if len(a.RiskStudents) > 0 {
		fmt.Println("\nStudents at risk:")
		n := len(a.RiskStudents)
		if n > 10 {
			n = 10
		}
		for _, s := range a.RiskStudents[:n] {
			fmt.Printf("  %-10s avg %.2f (%s risk)\n", s.StudentID, s.AvgGrade, s.RiskLevel)
		}
	}
}

func newReportCmd(configFile *string) *cobra.Command {
	flags := &dataFlags{}
	var kind, output string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a performance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(*configFile, flags)
			if err != nil {
				return err
			}
			if kind == "" {
				kind = cfg.Reporting.DefaultKind
			}

			tbl, err := loadCleanData(cmd.Context(), cfg, "report")
			if err != nil {
				return err
			}

			r, err := report.Generate(tbl, report.Kind(kind))
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(cfg.Reporting.OutputDir,
					fmt.Sprintf("report_%s_%s.json", kind, time.Now().Format("20060102_150405")))
			}
			if err := report.SaveJSON(r, output); err != nil {
				return err
			}

			fmt.Printf("Report (%s) saved to %s\n", kind, output)
			fmt.Printf("  Students: %d, at risk: %d, recommendations: %d\n",
				r.Summary.TotalStudents, r.Summary.RiskStudentsCount, len(r.Recommendations))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&kind, "type", "t", "", "Report type: weekly, monthly or detailed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path for the report JSON")
	return cmd
}

func newValidateCmd(configFile *string) *cobra.Command {
	flags := &dataFlags{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check data quality of a grades file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(*configFile, flags)
			if err != nil {
				return err
			}

			tbl, err := loader.LoadStudentData(dataContext(cmd.Context(), cfg, "validate"), cfg.DataSource.Path, loaderOptions(cfg))
			if err != nil {
				return err
			}

			quality := clean.Validate(tbl)
			fmt.Printf("Records:  %d\n", quality.TotalRecords)
			fmt.Printf("Columns:  %d\n", quality.TotalColumns)
			if quality.UniqueStudents > 0 {
				fmt.Printf("Students: %d (%.1f records each)\n",
					quality.UniqueStudents, quality.RecordsPerStudent)
			}
			if quality.UniqueSubjects > 0 {
				fmt.Printf("Subjects: %d\n", quality.UniqueSubjects)
			}

			if len(quality.MissingValues) > 0 {
				fmt.Println("\nMissing values:")
				for _, col := range tbl.Columns() {
					m, ok := quality.MissingValues[col]
					if !ok || m.Count == 0 {
						continue
					}
					fmt.Printf("  %-14s %d (%.1f%%)\n", col, m.Count, m.Percentage)
				}
			}
			if len(quality.BasicStats) > 0 {
				fmt.Println("\nNumeric columns:")
				for _, col := range tbl.Columns() {
					s, ok := quality.BasicStats[col]
					if !ok {
						continue
					}
					fmt.Printf("  %-14s mean %.2f, min %.2f, max %.2f\n",
						col, s.Mean, s.Min, s.Max)
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newConvertCmd(configFile *string) *cobra.Command {
	flags := &dataFlags{}
	var output string
	var compress bool

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a grades file to CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(*configFile, flags)
			if err != nil {
				return err
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			tbl, err := loader.Load(dataContext(cmd.Context(), cfg, "convert"), cfg.DataSource.Path, loaderOptions(cfg))
			if err != nil {
				return err
			}

			opts := export.DefaultOptions()
			opts.Compress = compress
			if err := export.SaveAny(tbl, output, opts); err != nil {
				return err
			}

			fmt.Printf("Wrote %d rows to %s\n", tbl.NumRows(), output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (.csv, .json, optionally .gz)")
	cmd.Flags().BoolVar(&compress, "compress", false, "Gzip the output")
	return cmd
}
