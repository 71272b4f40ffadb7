package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/memscope/internal/report"
	"github.com/memscope/internal/service"
	"github.com/memscope/internal/statistics"
	"github.com/memscope/pkg/filter"
	"github.com/memscope/pkg/model"
)

const exportToReportDir = "auto"

var (
	// Scan command flags
	scanAddr     string
	scanSize     int64
	scanSource   string
	imagePath    string
	imageBase    string
	wasmPath     string
	wasmMemory   string
	exportPath   string
	printJSON    bool
	saveRun      bool
	uploadReport bool
	includeTypes []string
	excludeTypes []string
	hideStd      bool
	typesOnly    bool
	showSummary  bool
	summaryTopN  int
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a memory range for objects and strings",
	Long: `Scan walks [addr, addr+size) in 4 byte steps. Each slot is first read as a
pointer to a polymorphic object and named through its RTTI; failing that,
the slot is checked for a std::string. Every match prints one line:

  [000] cocos2d::CCSprite
  [008] maybe string 5 > 15, "hello"

Sizes below 4 are raised to 4. Addresses are hexadecimal, with or
without a 0x prefix.

Memory sources:
  - self : the memscope process itself (default)
  - image: a raw memory dump mapped at --image-base
  - wasm : the exported linear memory of a WebAssembly module`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	binName := BinName()
	scanCmd.Example = `  # Scan a dump and print the report as JSON
  ` + binName + ` scan --source image --image ./dump.bin --image-base 0x400000 --addr 0x401000 --json

  # Scan a WebAssembly guest and export a compressed report
  ` + binName + ` scan --source wasm --wasm ./guest.wasm --addr 0x1000 --export ./guest.json.zst`

	scanCmd.Flags().StringVarP(&scanAddr, "addr", "a", "0", "Base address (hex)")
	scanCmd.Flags().Int64VarP(&scanSize, "size", "s", 0, "Bytes to scan (default from config)")
	scanCmd.Flags().StringVar(&scanSource, "source", "", "Memory source: self, image, wasm (default from config)")
	scanCmd.Flags().StringVar(&imagePath, "image", "", "Raw memory dump (image source)")
	scanCmd.Flags().StringVar(&imageBase, "image-base", "", "Address the dump is mapped at (default from config)")
	scanCmd.Flags().StringVar(&wasmPath, "wasm", "", "WebAssembly module (wasm source)")
	scanCmd.Flags().StringVar(&wasmMemory, "wasm-memory", "memory", "Name of the exported memory")
	scanCmd.Flags().StringVarP(&exportPath, "export", "o", "", "Write the JSON report to a file (.gz/.zst compress); alone, into the report dir")
	scanCmd.Flags().Lookup("export").NoOptDefVal = exportToReportDir
	scanCmd.Flags().BoolVar(&printJSON, "json", false, "Print the report as JSON instead of lines")
	scanCmd.Flags().BoolVar(&saveRun, "save", false, "Record the run in the history database")
	scanCmd.Flags().BoolVar(&uploadReport, "upload", false, "Upload the JSON report to the configured storage")

	// Filter flags
	scanCmd.Flags().StringSliceVar(&includeTypes, "include", nil, "Keep only types starting with these prefixes (e.g. cocos2d::)")
	scanCmd.Flags().StringSliceVar(&excludeTypes, "exclude", nil, "Drop types starting with these prefixes")
	scanCmd.Flags().BoolVar(&hideStd, "hide-std", false, "Drop standard library and runtime types")
	scanCmd.Flags().BoolVar(&typesOnly, "types-only", false, "Drop string findings")
	scanCmd.Flags().BoolVar(&showSummary, "summary", false, "Print finding counts per type after the report")
	scanCmd.Flags().IntVar(&summaryTopN, "top", 15, "Number of types in the summary (0 for all)")
}

func runScan(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("size") {
		scanSize = cfg.Scan.Size
	}
	if !cmd.Flags().Changed("source") {
		scanSource = cfg.Scan.Source
	}
	if !cmd.Flags().Changed("image-base") {
		imageBase = cfg.Scan.ImageBase
	}

	sourceType, err := model.ParseSourceType(scanSource)
	if err != nil {
		return err
	}

	svc, err := service.New(cfg, service.WithLogger(logger))
	if err != nil {
		return err
	}
	defer svc.Close()

	req := model.ScanRequest{AddressText: scanAddr, Size: scanSize}
	logger.Debug("scan request: addr=%s size=%d source=%s", req.AddressText, req.Size, sourceType)

	result, err := svc.Scan(cmd.Context(), req, service.ScanOptions{
		Source: service.Source{
			Type:       sourceType,
			ImagePath:  imagePath,
			ImageBase:  imageBase,
			WasmPath:   wasmPath,
			WasmMemory: wasmMemory,
		},
		Filter: filter.NewTypeFilter().
			Include(includeTypes...).
			Exclude(excludeTypes...).
			HideRuntime(hideStd).
			TypesOnly(typesOnly),
		Save:   saveRun,
		Upload: uploadReport,
	})
	if result == nil {
		return err
	}
	if err != nil {
		logger.Error("Scan finished but the report was not stored: %v", err)
	}

	out := cmd.OutOrStdout()
	if printJSON {
		if werr := report.NewPrettyWriter().Write(result.Report, out); werr != nil {
			return werr
		}
	} else if werr := report.WriteText(result.Report, out); werr != nil {
		return werr
	}

	if showSummary {
		printSummary(cmd, statistics.NewTypeStatsCalculator(statistics.WithTopN(summaryTopN)).Calculate(result.Report.Findings))
	}

	if exportPath != "" {
		if werr := exportReport(result.Report); werr != nil {
			return werr
		}
	}
	if result.UploadURL != "" {
		logger.Info("Report URL: %s", result.UploadURL)
	}
	return err
}

func printSummary(cmd *cobra.Command, stats *statistics.TypeStatsResult) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "\n%d findings: %d types (%d distinct), %d strings (%d inline, %d heap)\n\n",
		stats.TotalFindings, stats.TypeFindings, stats.DistinctTypes,
		stats.StringFindings, stats.InlineStrings, stats.HeapStrings)
	if len(stats.TopTypes) > 0 {
		fmt.Fprint(w, "COUNT\tPERCENT\tCATEGORY\tTYPE\n")
		for _, e := range stats.TopTypes {
			fmt.Fprintf(w, "%d\t%.1f%%\t%s\t%s\n", e.Count, e.Percent, e.Category, e.Name)
		}
	}
	_ = w.Flush()
}

func exportReport(r *model.ScanReport) error {
	path := exportPath
	if path == exportToReportDir {
		if err := cfg.EnsureReportDir(); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		path = cfg.ReportPath(r.RunID)
	}
	if err := report.NewPrettyWriter().WriteToFile(r, path); err != nil {
		return err
	}
	logger.Info("Report written to %s", path)
	return nil
}
