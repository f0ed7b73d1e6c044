package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"xlreport/config"
	"xlreport/core"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	output   io.Writer
	storeDir string
	s3Bucket string
	s3Prefix string
	verbose  bool
	pretty   bool

	configFile     string
	dataSourceFile string
	fetcherType    string
	dataDir        string
	dbDSN          string
	outputDir      string
	params         []string
}

func run(output io.Writer, args []string) error {
	cmd := newRootCmd(&options{output: output})
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)
	return cmd.ExecuteContext(context.Background())
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "xlreport",
		Short:         "Fill xlsx templates with query results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(opts.output, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&opts.storeDir, "store", "./templates", "Local template store directory")
	root.PersistentFlags().StringVar(&opts.s3Bucket, "s3-bucket", "", "S3 bucket holding templates (overrides --store)")
	root.PersistentFlags().StringVar(&opts.s3Prefix, "s3-prefix", "xlreport-templates", "S3 prefix (folder) for stored templates")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newParseCmd(opts), newScanCmd(opts), newUploadCmd(opts), newGenerateCmd(opts))
	return root
}

func newParseCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <template.xlsx>",
		Short: "Print the structural model of a workbook as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := parseFile(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), wb, opts.pretty)
		},
	}
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func newScanCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <template.xlsx>",
		Short: "List the {{type:name}} placeholders of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := parseFile(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), core.ScanPlaceholders(wb), opts.pretty)
		},
	}
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func newUploadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <template-id> <template.xlsx>",
		Short: "Parse a workbook and store it as a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read template: %w", err)
			}
			store, err := opts.templateStore(cmd.Context())
			if err != nil {
				return err
			}
			info, err := core.NewTemplateService(store).Upload(cmd.Context(), args[0], filepath.Base(args[1]), content)
			if err != nil {
				return err
			}
			for _, ph := range info.Placeholders {
				slog.Info("Placeholder", "id", ph.ID, "token", ph.Token, "sheet", ph.SheetName, "cell", ph.CellRef)
			}
			return nil
		},
	}
}

func newGenerateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report from a configuration bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.generate(cmd.Context())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "./config.yaml", "Path to report configuration bundle")
	flags.StringVar(&opts.dataSourceFile, "datasources", "", "Path to source bundle overriding the bundle's sources (optional)")
	flags.StringVar(&opts.fetcherType, "fetcher", "csv", "Data fetcher type: csv, dynamodb, mysql, postgres")
	flags.StringVar(&opts.dataDir, "data-dir", "./data_csv", "Directory of CSV sources for the csv fetcher")
	flags.StringVar(&opts.dbDSN, "db-dsn", "", "Database connection string (DSN) for mysql/postgres")
	flags.StringVar(&opts.outputDir, "output", "./output", "Directory for generated reports")
	flags.StringArrayVar(&opts.params, "param", nil, "Report parameter as key=value (repeatable)")
	return cmd
}

func (o *options) templateStore(ctx context.Context) (core.TemplateStore, error) {
	if o.s3Bucket == "" {
		return core.NewLocalTemplateStore(o.storeDir), nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config for S3: %w", err)
	}
	slog.Info("Using S3 template store", "bucket", o.s3Bucket, "prefix", o.s3Prefix)
	return core.NewS3TemplateStore(cfg, o.s3Bucket, o.s3Prefix), nil
}

func (o *options) fetcher(ctx context.Context) (core.DataFetcher, error) {
	switch o.fetcherType {
	case "dynamodb":
		slog.Info("Initializing DynamoDB Data Fetcher")
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
		}
		return core.NewDynamoDBDataFetcher(cfg), nil
	case "mysql", "postgres":
		if o.dbDSN == "" {
			return nil, fmt.Errorf("db-dsn is required for %s fetcher", o.fetcherType)
		}
		slog.Info("Initializing SQL Data Fetcher", "type", o.fetcherType)
		db, err := sql.Open(o.fetcherType, o.dbDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open db connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping db: %w", err)
		}
		return core.NewSQLDataFetcher(db, o.fetcherType), nil
	case "csv":
		slog.Info("Initializing CSV Data Fetcher", "dir", o.dataDir)
		return core.NewCsvDataFetcher(o.dataDir), nil
	}
	return nil, fmt.Errorf("unknown fetcher type %q", o.fetcherType)
}

func (o *options) generate(ctx context.Context) error {
	slog.Info("Loading configuration bundle", "file", o.configFile)
	report, sources, err := config.LoadConfigBundle(o.configFile)
	if err != nil {
		return err
	}
	if o.dataSourceFile != "" {
		slog.Info("Loading source bundle", "file", o.dataSourceFile)
		if sources, err = config.LoadSourcesBundle(o.dataSourceFile); err != nil {
			return err
		}
	}

	registry := config.NewMemoryConfigRegistry(sources)
	for _, id := range config.NewValidator(registry).UnknownSources(report) {
		slog.Warn("Report references unknown source, its bindings will be skipped", "source", id)
	}

	params, err := parseParams(o.params)
	if err != nil {
		return err
	}
	fetcher, err := o.fetcher(ctx)
	if err != nil {
		return err
	}
	store, err := o.templateStore(ctx)
	if err != nil {
		return err
	}

	slog.Info("Processing report", "name", report.Name, "id", report.ID)
	generator := core.NewGenerator(core.NewTemplateService(store), registry, fetcher)
	out, err := generator.Generate(ctx, core.GenerateRequest{Report: report, Params: params})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(o.outputDir, out.Filename)
	if err := os.WriteFile(path, out.Content, 0644); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}
	slog.Info("Successfully generated", "name", report.Name, "file", path)
	return nil
}

func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid param %q: expected key=value", p)
		}
		params[k] = v
	}
	return params, nil
}

func parseFile(path string) (*core.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()
	return core.ParseTemplate(f)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return nil
}
