// =============================================================================
// Pre-Alert Engine - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the batch pipeline
// over the input directory.
//
// COMMAND USAGE:
//   prealert process [flags]
//
// FLAGS:
//   --dry-run            : Load and validate without writing or archiving
//   --file               : Process a single file instead of the input directory
//   --dataset            : Process only files for a specific dataset code
//   --recursive          : Scan the input directory recursively
//   --term               : Keep only the line items matching a search term
//   --archive-retention  : Remove archived files older than this (e.g. 720h)
//
// PROCESSING PIPELINE:
//   1. Load the main configuration and dataset configurations
//   2. Discover input files in the input directory
//   3. Match each file to a dataset configuration
//   4. Load files concurrently (parse, transform, validate, group by MAWB)
//   5. For each shipment: filter, summarise, write XML and XLSX reports
//   6. Archive processed inputs and reports
//   7. Write the error log and the processing summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/prealert-engine/internal/board"
	"github.com/ginjaninja78/prealert-engine/internal/filter"
	"github.com/ginjaninja78/prealert-engine/internal/loader"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/summary"
	"github.com/ginjaninja78/prealert-engine/internal/xlsxreport"
	"github.com/ginjaninja78/prealert-engine/internal/xmlwriter"
	"github.com/ginjaninja78/prealert-engine/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun           bool
	processFile      string
	processDataset   string
	processRecursive bool
	processTerm      string
	archiveRetention time.Duration
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process every file in the input directory",
	Long: `The process command scans the input directory for CSV, XLSX and YAML files,
matches them to a dataset configuration, and writes one XML and one XLSX
report per shipment (MAWB) into the output directory.

Files are loaded concurrently. Rows that fail validation are skipped and
written to the error log; the rest of the file is still processed.

On successful processing:
  - The reports are placed in the output directory and copied to the output archive
  - The original input is moved to the input archive
  - A processing summary is written to the logs directory

On error:
  - The error is written to the error log
  - The original input remains in the input directory
  - Processing continues for other files when continue_on_error is set`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Load and validate without writing or archiving")
	processCmd.Flags().StringVar(&processFile, "file", "", "Process a single file instead of the input directory")
	processCmd.Flags().StringVar(&processDataset, "dataset", "", "Process only files for a specific dataset code")
	processCmd.Flags().BoolVar(&processRecursive, "recursive", false, "Scan the input directory recursively")
	processCmd.Flags().StringVar(&processTerm, "term", "", "Keep only the line items matching a search term")
	processCmd.Flags().DurationVar(&archiveRetention, "archive-retention", 0, "Remove archived files older than this (0 keeps everything)")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the pipeline.
func runProcess(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	startTime := time.Now()

	// =========================================================================
	// STEP 1: PREPARE DIRECTORIES AND DATASETS
	// =========================================================================

	fm := utils.NewFileManager(
		appConfig.InputDir,
		appConfig.OutputDir,
		appConfig.InputArchiveDir,
		appConfig.OutputArchiveDir,
		appConfig.LogsDir,
	)
	fm.Logger = logger
	fm.ArchiveOnSuccess = !dryRun

	if err := appConfig.EnsureDirectories(); err != nil {
		return err
	}
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	picker, err := newDatasetPicker(processDataset)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render("=== Pre-Alert Engine ==="))
	fmt.Fprintf(out, "Loaded %d dataset configuration(s)\n", len(picker.datasets))

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := discoverInputFiles(fm, picker)
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No input files found in the input directory.")
		return nil
	}
	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: LOAD FILES CONCURRENTLY
	// =========================================================================

	results, err := loader.LoadFiles(cmd.Context(), inputFiles, picker.prepare(inputFiles), loader.BatchOptions{
		MaxConcurrency:  appConfig.MaxConcurrency,
		ContinueOnError: appConfig.ContinueOnError,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: WRITE REPORTS, ARCHIVE AND COLLECT THE SUMMARY
	// =========================================================================

	run := utils.ProcessingSummary{StartTime: startTime, TotalFiles: len(inputFiles)}
	var errorEntries []utils.ErrorLogEntry

	for _, fr := range results {
		if fr.Err != nil {
			run.FailedFiles++
			run.FailedFilesList = append(run.FailedFilesList, utils.FailedFileInfo{InputFile: fr.Path, ErrorMessage: fr.Err.Error()})
			errorEntries = append(errorEntries, utils.ErrorLogEntry{
				Timestamp:    time.Now(),
				FileName:     filepath.Base(fr.Path),
				ErrorType:    "file",
				ErrorMessage: fr.Err.Error(),
			})
			fmt.Fprintf(out, "  %s %s: %v\n", failBadge.Render("✗"), filepath.Base(fr.Path), fr.Err)
			continue
		}

		info, err := processResult(fm, fr.Result)
		if err != nil {
			run.FailedFiles++
			run.FailedFilesList = append(run.FailedFilesList, utils.FailedFileInfo{InputFile: fr.Path, ErrorMessage: err.Error()})
			errorEntries = append(errorEntries, utils.ErrorLogEntry{
				Timestamp:    time.Now(),
				FileName:     filepath.Base(fr.Path),
				ErrorType:    "output",
				ErrorMessage: err.Error(),
			})
			fmt.Fprintf(out, "  %s %s: %v\n", failBadge.Render("✗"), filepath.Base(fr.Path), err)
			if !appConfig.ContinueOnError {
				break
			}
			continue
		}

		errorEntries = append(errorEntries, rowErrorEntries(fr.Result)...)
		run.SuccessfulFiles++
		run.TotalRows += fr.Result.Rows
		run.ValidationErrors += len(fr.Result.Errors)
		run.TotalShipments += info.Shipments
		run.TotalLineItems += info.LineItems
		run.ProcessedFiles = append(run.ProcessedFiles, info.ProcessedFileInfo)
		run.TotalQuantity += info.totals.TotalQuantity
		run.TotalPriceUSD += info.totals.TotalPriceUSD
		run.TotalPriceSAR += info.totals.TotalPriceSAR

		fmt.Fprintf(out, "  %s %s -> %d shipment(s), %d item(s), %d skipped row(s)\n",
			okBadge.Render("✓"), filepath.Base(fr.Path), info.Shipments, info.LineItems, len(fr.Result.Errors))
	}
	run.EndTime = time.Now()

	// =========================================================================
	// STEP 5: LOGS, RETENTION AND CONSOLE SUMMARY
	// =========================================================================

	if !dryRun {
		if err := writeRunLogs(out, fm, errorEntries, run); err != nil {
			return err
		}
		if archiveRetention > 0 {
			for _, dir := range []string{fm.InputArchiveDir, fm.OutputArchiveDir} {
				removed, err := utils.CleanOldArchives(dir, archiveRetention, time.Now())
				if err != nil {
					return err
				}
				logger.Info("cleaned archive", zap.String("dir", dir), zap.Int("removed", removed))
			}
		}
	}

	printRunSummary(out, run)
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// discoverInputFiles returns the files to process, honouring --file and
// --recursive. With --dataset, directory files of other datasets are skipped.
func discoverInputFiles(fm *utils.FileManager, picker *datasetPicker) ([]string, error) {
	if processFile != "" {
		if !utils.FileExists(processFile) {
			return nil, eris.Errorf("input file %s does not exist", processFile)
		}
		return []string{processFile}, nil
	}

	var (
		files []string
		err   error
	)
	if processRecursive {
		exts := make([]string, len(utils.DefaultInputPatterns))
		for i, p := range utils.DefaultInputPatterns {
			exts[i] = strings.TrimPrefix(p, "*")
		}
		files, err = fm.DiscoverInputFilesRecursive(exts...)
	} else {
		files, err = fm.DiscoverInputFiles()
	}
	if err != nil {
		return nil, eris.Wrap(err, "failed to discover input files")
	}

	if processDataset == "" {
		return files, nil
	}
	kept := files[:0]
	for _, file := range files {
		if _, err := picker.dataset(file); err != nil {
			logger.Debug("skipping file", zap.String("file", file), zap.Error(err))
			continue
		}
		kept = append(kept, file)
	}
	return kept, nil
}

// fileOutcome is what processResult reports for one input file.
type fileOutcome struct {
	utils.ProcessedFileInfo
	totals summary.Summary
}

// processResult writes the reports of one loaded file and archives it.
func processResult(fm *utils.FileManager, r *loader.Result) (fileOutcome, error) {
	start := time.Now()
	outcome := fileOutcome{ProcessedFileInfo: utils.ProcessedFileInfo{
		InputFile: r.SourceFile,
		Dataset:   r.Dataset,
		Rows:      r.Rows,
		Errors:    len(r.Errors),
	}}

	direction := r.Direction
	if direction == "" {
		direction = string(board.Inbound)
	}

	for _, b := range r.Shipments {
		items := filter.ByTerm(b.Items, processTerm)
		if len(items) == 0 {
			continue
		}
		outcome.Shipments++
		outcome.LineItems += len(items)
		s := summary.Summarize(items)
		outcome.totals.ItemCount += s.ItemCount
		outcome.totals.TotalQuantity += s.TotalQuantity
		outcome.totals.TotalPriceUSD += s.TotalPriceUSD
		outcome.totals.TotalPriceSAR += s.TotalPriceSAR

		if dryRun {
			continue
		}

		for _, format := range appConfig.ReportFormats {
			path, err := writeShipmentReport(fm, r, b.ShipmentID, direction, items, strings.ToLower(format))
			if err != nil {
				return outcome, err
			}
			outcome.OutputFiles = append(outcome.OutputFiles, path)
			if _, err := fm.ArchiveOutputFile(path); err != nil {
				return outcome, err
			}
		}
	}

	if !dryRun {
		archived, err := fm.ArchiveInputFile(r.SourceFile)
		if err != nil {
			return outcome, err
		}
		outcome.ArchivePath = archived
	}

	outcome.ProcessTime = time.Since(start)
	return outcome, nil
}

// writeShipmentReport writes one report for one shipment and returns its path.
func writeShipmentReport(fm *utils.FileManager, r *loader.Result, shipmentID, direction string, items shipment.Collection, format string) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)

	switch format {
	case "xml":
		ext = ".xml"
		data, err = xmlwriter.Generate(xmlwriter.Document{
			Dataset:   r.Dataset,
			Source:    filepath.Base(r.SourceFile),
			Shipments: []xmlwriter.Shipment{{ID: shipmentID, Direction: direction, Items: items}},
		})
	case "xlsx":
		ext = ".xlsx"
		data, err = xlsxreport.GenerateShipments(fmt.Sprintf("%s pre-alert", r.Dataset), []xlsxreport.Shipment{
			{ID: shipmentID, Direction: direction, Items: items},
		})
	default:
		return "", eris.Errorf("unknown report format %q", format)
	}
	if err != nil {
		return "", eris.Wrapf(err, "render %s report for %s", format, shipmentID)
	}

	name := fm.GenerateOutputFileName(appConfig.OutputNameFormat, ext, map[string]string{
		"dataset":  r.Dataset,
		"shipment": shipmentID,
		"original": strings.TrimSuffix(filepath.Base(r.SourceFile), filepath.Ext(r.SourceFile)),
	})
	path := filepath.Join(fm.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "failed to write %s", path)
	}

	logger.Debug("wrote report", zap.String("path", path), zap.Int("items", len(items)))
	return path, nil
}

// rowErrorEntries converts skipped rows into error log entries.
func rowErrorEntries(r *loader.Result) []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(r.Errors))
	for _, e := range r.Errors {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     filepath.Base(e.File),
			ErrorType:    e.Rule,
			ErrorMessage: e.Message,
			RowNumber:    e.Row,
			ColumnName:   e.Header,
			FieldName:    string(e.Field),
			FieldValue:   e.Value,
		})
	}
	return entries
}

// writeRunLogs writes the error log (when needed) and the summary log.
func writeRunLogs(out io.Writer, fm *utils.FileManager, entries []utils.ErrorLogEntry, run utils.ProcessingSummary) error {
	errorLog, err := fm.WriteErrorLog(entries)
	if err != nil {
		return err
	}
	if errorLog != "" {
		fmt.Fprintf(out, "\nErrors have been logged to %s\n", errorLog)
	}

	summaryLog, err := fm.WriteSummaryLog(run)
	if err != nil {
		return err
	}
	logger.Info("processing summary written", zap.String("path", summaryLog))
	return nil
}

// printRunSummary prints the closing block of a run.
func printRunSummary(out io.Writer, run utils.ProcessingSummary) {
	fmt.Fprintln(out, titleStyle.Render("\n=== Processing Complete ==="))
	fmt.Fprintf(out, "Total files:       %d\n", run.TotalFiles)
	fmt.Fprintf(out, "Successful:        %d\n", run.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:            %d\n", run.FailedFiles)
	fmt.Fprintf(out, "Skipped rows:      %d\n", run.ValidationErrors)
	fmt.Fprintf(out, "Shipments:         %d\n", run.TotalShipments)
	printSummary(out, summary.Summary{
		ItemCount:     run.TotalLineItems,
		TotalQuantity: run.TotalQuantity,
		TotalPriceUSD: run.TotalPriceUSD,
		TotalPriceSAR: run.TotalPriceSAR,
	})
	fmt.Fprintf(out, "Time elapsed:      %s\n", run.EndTime.Sub(run.StartTime))
	if dryRun {
		fmt.Fprintln(out, mutedStyle.Render("Dry run: no reports written, nothing archived."))
	}
}
