// =============================================================================
// Pre-Alert Engine - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for `prealert process`:
//   - Input discovery (CSV, XLSX and YAML datasets)
//   - File archival (moving processed inputs, copying reports)
//   - Report file naming
//   - Error and processing summary logs
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after successful processing
//   - Reports are copied to output_archive for long-term storage
//   - Failed files remain in their original location
//   - An archived name that already exists gets a timestamp suffix
//   - Logs are created in the logs directory
//
// CUSTOMIZATION:
//   - Modify archival behavior (copy vs. move, date-based subdirectories)
//   - Implement retention policies with CleanOldArchives
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultInputPatterns are the glob patterns scanned when none are given.
var DefaultInputPatterns = []string{"*.csv", "*.txt", "*.xlsx", "*.xlsm", "*.yaml", "*.yml"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the processing pipeline.
type FileManager struct {
	// InputDir is the directory where input files are placed.
	InputDir string

	// OutputDir is the directory where reports are written.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// OutputArchiveDir is the directory for archived reports.
	OutputArchiveDir string

	// LogsDir receives error and summary logs.
	LogsDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2025/10/15/810_manifest.csv
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether to archive files after successful processing.
	ArchiveOnSuccess bool

	Logger *zap.Logger

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir, logsDir string) *FileManager {
	return &FileManager{
		InputDir:            inputDir,
		OutputDir:           outputDir,
		InputArchiveDir:     inputArchiveDir,
		OutputArchiveDir:    outputArchiveDir,
		LogsDir:             logsDir,
		UseTimestampSubdirs: false,
		ArchiveOnSuccess:    true,
		Logger:              zap.NewNop(),
		Now:                 time.Now,
	}
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

func (fm *FileManager) logger() *zap.Logger {
	if fm.Logger == nil {
		return zap.NewNop()
	}
	return fm.Logger
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.InputDir,
		fm.OutputDir,
		fm.InputArchiveDir,
		fm.OutputArchiveDir,
		fm.LogsDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for files matching any of the
// patterns.
//
// PARAMETERS:
//   - patterns: Glob patterns (e.g., "810_*.csv"). If empty,
//     DefaultInputPatterns are used.
//
// RETURNS:
//   - Sorted, de-duplicated file paths.
//   - An error if a pattern is malformed.
func (fm *FileManager) DiscoverInputFiles(patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultInputPatterns
	}

	seen := make(map[string]bool)
	var result []string
	for _, pattern := range patterns {
		files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, eris.Wrapf(err, "failed to scan input directory with %q", pattern)
		}

		for _, file := range files {
			if seen[file] {
				continue
			}
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			seen[file] = true
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// DiscoverInputFilesRecursive scans the input directory recursively.
//
// PARAMETERS:
//   - extensions: File extensions to match (e.g., ".csv"). Empty matches
//     every file.
//
// RETURNS:
//   - File paths in walk (lexical) order.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFilesRecursive(extensions ...string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(fm.InputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(extensions) == 0 {
			files = append(files, path)
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range extensions {
			if ext == strings.ToLower(want) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to walk input directory")
	}

	return files, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath, err := fm.prepareArchivePath(fm.InputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", eris.Wrap(err, "failed to copy file to archive")
		}
		if err := os.Remove(filePath); err != nil {
			return "", eris.Wrap(err, "failed to remove original file")
		}
	}

	fm.logger().Info("archived input", zap.String("file", filePath), zap.String("archive", archivePath))
	return archivePath, nil
}

// ArchiveOutputFile copies a report to the archive directory. The report
// stays in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath, err := fm.prepareArchivePath(fm.OutputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", eris.Wrap(err, "failed to copy file to archive")
	}

	fm.logger().Debug("archived report", zap.String("file", filePath), zap.String("archive", archivePath))
	return archivePath, nil
}

// prepareArchivePath creates the archive directory and returns a path that
// does not exist yet.
func (fm *FileManager) prepareArchivePath(archiveDir, filePath string) (string, error) {
	archivePath := fm.getArchivePath(archiveDir, filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", eris.Wrap(err, "failed to create archive directory")
	}

	if FileExists(archivePath) {
		ext := filepath.Ext(archivePath)
		base := strings.TrimSuffix(archivePath, ext)
		archivePath = fmt.Sprintf("%s_%s%s", base, fm.now().Format("20060102_150405"), ext)
		for n := 2; FileExists(archivePath); n++ {
			archivePath = fmt.Sprintf("%s_%s_%d%s", base, fm.now().Format("20060102_150405"), n, ext)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.now()
		return filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(archiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a report file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//     {dataset}   - Dataset code
//     {shipment}  - Shipment (MAWB) number
//     {original}  - Input file name without extension
//   - ext: The extension to ensure, e.g. ".xml".
//   - params: Values for the named placeholders.
//
// RETURNS:
//   - The generated file name. Path separators in values become "_".
//
// EXAMPLE:
//
//	format: "{dataset}_{shipment}_{timestamp}"
//	params: {"dataset": "810", "shipment": "176-16884485"}
//	output: "810_176-16884485_20251015_132446.xml"
func (fm *FileManager) GenerateOutputFileName(format, ext string, params map[string]string) string {
	return generateOutputFileName(fm.now(), format, ext, params)
}

func generateOutputFileName(now time.Time, format, ext string, params map[string]string) string {
	pairs := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pairs = append(pairs, "{"+key+"}", safeName(params[key]))
	}

	result := strings.NewReplacer(pairs...).Replace(format)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// safeName makes a placeholder value usable in a file name.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
	RowNumber    int
	ColumnName   string
	FieldName    string
	FieldValue   string
	ShipmentID   string
}

// WriteErrorLog writes error entries to a log file in the logs directory.
//
// RETURNS:
//   - The path to the error log file, or "" when there were no entries.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := fm.now()
	logPath := filepath.Join(fm.LogsDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", eris.Wrap(err, "failed to create error log")
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Pre-Alert Engine - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  File:           %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.ColumnName != "" {
			fmt.Fprintf(writer, "  Column:         %s\n", entry.ColumnName)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
		}
		if entry.ShipmentID != "" {
			fmt.Fprintf(writer, "  Shipment:       %s\n", entry.ShipmentID)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", eris.Wrap(err, "failed to flush error log")
	}

	fm.logger().Info("wrote error log", zap.String("path", logPath), zap.Int("errors", len(entries)))
	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime        time.Time
	EndTime          time.Time
	TotalFiles       int
	SuccessfulFiles  int
	FailedFiles      int
	TotalRows        int
	TotalShipments   int
	TotalLineItems   int
	TotalQuantity    int
	TotalPriceUSD    float64
	TotalPriceSAR    float64
	ValidationErrors int
	ProcessedFiles   []ProcessedFileInfo
	FailedFilesList  []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	Dataset     string
	OutputFiles []string
	ArchivePath string
	Rows        int
	Shipments   int
	LineItems   int
	Errors      int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to the logs directory.
// Money totals are printed with thousands separators.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	summaryPath := filepath.Join(fm.LogsDir,
		fmt.Sprintf("processing_summary_%s.txt", fm.now().Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", eris.Wrap(err, "failed to create summary file")
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	p := message.NewPrinter(language.English)

	duration := summary.EndTime.Sub(summary.StartTime)
	p.Fprintf(writer, "Pre-Alert Engine - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:         %s\n"+
		"  End Time:           %s\n"+
		"  Duration:           %s\n\n"+
		"Statistics:\n"+
		"  Total Files:        %d\n"+
		"  Successful:         %d\n"+
		"  Failed:             %d\n"+
		"  Total Rows:         %d\n"+
		"  Total Shipments:    %d\n"+
		"  Total Line Items:   %d\n"+
		"  Total QTY:          %d\n"+
		"  Total Price (USD):  %.2f\n"+
		"  Total Price (SAR):  %.2f\n"+
		"  Validation Errors:  %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalRows,
		summary.TotalShipments,
		summary.TotalLineItems,
		summary.TotalQuantity,
		summary.TotalPriceUSD,
		summary.TotalPriceSAR,
		summary.ValidationErrors)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(writer, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(writer, "  Dataset:      %s\n", pf.Dataset)
			for _, out := range pf.OutputFiles {
				fmt.Fprintf(writer, "  Output:       %s\n", out)
			}
			if pf.ArchivePath != "" {
				fmt.Fprintf(writer, "  Archived:     %s\n", pf.ArchivePath)
			}
			fmt.Fprintf(writer, "  Rows:         %d\n", pf.Rows)
			fmt.Fprintf(writer, "  Shipments:    %d\n", pf.Shipments)
			fmt.Fprintf(writer, "  Line Items:   %d\n", pf.LineItems)
			fmt.Fprintf(writer, "  Errors:       %d\n", pf.Errors)
			fmt.Fprintf(writer, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", eris.Wrap(err, "failed to flush summary file")
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldArchives removes archive files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func CleanOldArchives(archiveDir string, maxAge time.Duration, now time.Time) (int, error) {
	cutoff := now.Add(-maxAge)
	removed := 0

	err := filepath.WalkDir(archiveDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, eris.Wrap(err, "failed to clean archives")
	}

	return removed, nil
}
