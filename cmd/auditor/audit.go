package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/batch"
	"github.com/auditly/invoice-auditor/internal/models"
	"github.com/auditly/invoice-auditor/internal/policy"
	"github.com/auditly/invoice-auditor/internal/report"
)

const formatExcel = "excel"

func auditCmd() *cobra.Command {
	var (
		policyFile string
		formatName string
		outputPath string
		useHistory bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "audit <extracted.json> [more.json...]",
		Short: "Audit extracted invoice data against vendor policies",
		Long: `Audit one or more extracted-invoice JSON files. Each file holds the
output of an OCR extraction step. The exit code is 1 when any audited
invoice has high-priority issues, so the command can gate a pipeline.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(useHistory)
			if err != nil {
				return err
			}
			defer app.Close()

			items := loadItems(app, args)

			if policyFile != "" {
				pol, err := policy.LoadFile(policyFile)
				if err != nil {
					return err
				}
				// One explicit policy overrides the per-vendor directory.
				for _, item := range items {
					if item.Invoice != nil {
						app.policies.Set(item.Invoice.Vendor.Name, pol)
					}
				}
			}

			if workers <= 0 {
				workers = app.cfg.Audit.BatchWorkers
			}
			processor := batch.NewProcessor(app.auditor, app.policies, workers, app.logger)
			results := processor.Process(cmd.Context(), items)

			if err := writeReports(app, results, formatName, outputPath); err != nil {
				return err
			}

			tally, failed := batch.Tally(results)
			if failed > 0 {
				return fmt.Errorf("%d of %d invoices failed to audit", failed, len(results))
			}
			if tally.High > 0 {
				return errHighSeverity
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policyFile, "policy", "", "policy file (.json or .csv) applied to every invoice")
	cmd.Flags().StringVarP(&formatName, "format", "f", "text", "report format: text, html, json or excel")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file, or directory when auditing multiple invoices (default stdout)")
	cmd.Flags().BoolVar(&useHistory, "history", true, "record and check invoices against the history database")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent audit workers (default from config)")

	return cmd
}

// loadItems reads each extracted-data file into a batch item. A file
// that cannot be read or parsed becomes an errorless item with a nil
// invoice; the processor reports it as a failure alongside the others.
func loadItems(app *app, paths []string) []batch.Item {
	items := make([]batch.Item, 0, len(paths))
	now := time.Now()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			app.logger.Error("Failed to read input file", zap.String("path", path), zap.Error(err))
			items = append(items, batch.Item{Source: path})
			continue
		}

		var extracted models.ExtractedData
		if err := json.Unmarshal(data, &extracted); err != nil {
			app.logger.Error("Failed to parse extracted data", zap.String("path", path), zap.Error(err))
			items = append(items, batch.Item{Source: path})
			continue
		}
		if extracted.SourceFile == "" {
			extracted.SourceFile = path
		}

		items = append(items, batch.Item{Source: path, Invoice: extracted.ToInvoice(now, app.logger)})
	}
	return items
}

func writeReports(app *app, results []batch.Result, formatName, outputPath string) error {
	if formatName == formatExcel {
		return writeExcelReports(results, outputPath)
	}

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	renderer := report.NewRenderer(app.logger)

	multi := len(results) > 1
	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			fmt.Fprintf(os.Stderr, "SKIPPED %s: %v\n", r.Source, r.Err)
			continue
		}

		rendered, err := renderer.Render(r.Result, format)
		if err != nil {
			return fmt.Errorf("failed to render report for %s: %w", r.Source, err)
		}

		if outputPath == "" {
			fmt.Println(rendered)
			continue
		}

		dest := outputPath
		if multi {
			dest = filepath.Join(outputPath, reportFileName(r.Source, format))
			if err := os.MkdirAll(outputPath, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(dest, []byte(rendered), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		app.logger.Info("Report written", zap.String("path", dest))
	}
	return nil
}

func writeExcelReports(results []batch.Result, outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("excel format requires --output")
	}

	multi := len(results) > 1
	if multi {
		if err := os.MkdirAll(outputPath, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			fmt.Fprintf(os.Stderr, "SKIPPED %s: %v\n", r.Source, r.Err)
			continue
		}
		dest := outputPath
		if multi {
			dest = filepath.Join(outputPath, baseName(r.Source)+"_audit.xlsx")
		}
		if err := report.WriteExcel(r.Result, dest); err != nil {
			return fmt.Errorf("failed to write excel report for %s: %w", r.Source, err)
		}
	}
	return nil
}

func reportFileName(source string, format report.Format) string {
	ext := map[report.Format]string{
		report.FormatText: ".txt",
		report.FormatHTML: ".html",
		report.FormatJSON: ".json",
	}[format]
	return baseName(source) + "_audit" + ext
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
