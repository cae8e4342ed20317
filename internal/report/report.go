// Package report serializes a run summary into the requested artifact
// formats. Every format renders the same summary object; none of them
// transforms the data beyond presentation.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/ndhoang91/sitecheck-cli/internal/checker"
	"github.com/ndhoang91/sitecheck-cli/internal/runner"
)

const (
	htmlTemplatePath     = "templates/report.html"
	markdownTemplatePath = "templates/report.md"
	filenameStamp        = "20060102-150405"
	defaultFilePerm      = 0o644
	defaultDirPerm       = 0o755
)

//go:embed templates/report.html templates/report.md
var reportTemplateFS embed.FS

var templateFuncs = map[string]any{
	"upper":      strings.ToUpper,
	"formatTime": formatTimestamp,
	"formatMS":   formatLatency,
	"outcomeBadge": func(o checker.Outcome) string {
		return "badge-" + string(o)
	},
}

var (
	htmlReportTemplate = template.Must(
		template.New("report.html").Funcs(templateFuncs).ParseFS(reportTemplateFS, htmlTemplatePath),
	)
	markdownReportTemplate = texttemplate.Must(
		texttemplate.New("report.md").Funcs(templateFuncs).ParseFS(reportTemplateFS, markdownTemplatePath),
	)
)

// ModuleSection is one module's slice of the rendered report.
type ModuleSection struct {
	Key   string
	Error string
	Tally checker.Tally
	Tests []checker.TestResult
}

// TemplateData is the flattened summary handed to the HTML/Markdown/PDF
// renderers.
type TemplateData struct {
	Timestamp   time.Time
	Environment string
	Tally       checker.Tally
	Sections    []ModuleSection
}

func buildTemplateData(summary runner.RunSummary) TemplateData {
	data := TemplateData{
		Timestamp:   summary.Timestamp,
		Environment: summary.Environment,
		Tally:       summary.Tally,
	}
	keys := make([]string, 0, len(summary.Modules))
	for k := range summary.Modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mod := summary.Modules[k]
		section := ModuleSection{Key: k, Error: mod.Error}
		if mod.ModuleResult != nil {
			section.Tally = mod.ModuleResult.Tally
			section.Tests = mod.ModuleResult.Tests
		}
		data.Sections = append(data.Sections, section)
	}
	return data
}

// Write renders the summary in every requested format into outputDir,
// creating the directory on first use. Returns the written paths. An
// unknown format is an error; a failed format aborts the remaining ones.
func Write(summary runner.RunSummary, outputDir string, formats []string) ([]string, error) {
	if err := os.MkdirAll(outputDir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	stamp := summary.Timestamp.Format(filenameStamp)
	data := buildTemplateData(summary)

	var written []string
	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))
		path := filepath.Join(outputDir, fmt.Sprintf("sitecheck-%s.%s", stamp, format))

		var content []byte
		var err error
		switch format {
		case "json":
			content, err = json.MarshalIndent(summary, "", "  ")
		case "html":
			content, err = renderHTML(data)
		case "md", "markdown":
			content, err = renderMarkdown(data)
			path = filepath.Join(outputDir, fmt.Sprintf("sitecheck-%s.md", stamp))
		case "pdf":
			content, err = renderPDF(data)
		default:
			return written, fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return written, fmt.Errorf("render %s report: %w", format, err)
		}

		if err := os.WriteFile(path, content, defaultFilePerm); err != nil {
			return written, fmt.Errorf("write %s report: %w", format, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func renderHTML(data TemplateData) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlReportTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderMarkdown(data TemplateData) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownReportTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPDF(data TemplateData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Site Validation Report", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Generated: "+formatTimestamp(data.Timestamp), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, "Environment: "+data.Environment, "", 1, "", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Passed: %d | Failed: %d | Warnings: %d | Skipped: %d",
		data.Tally.Passed, data.Tally.Failed, data.Tally.Warnings, data.Tally.Skipped),
		"", 1, "", false, 0, "")
	pdf.Ln(3)

	for _, section := range data.Sections {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(0, 7, strings.ToUpper(section.Key), "", 1, "", true, 0, "")
		pdf.Ln(1)

		if section.Error != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, "Module error: "+section.Error, "", "", false)
			pdf.Ln(2)
			continue
		}

		pdf.SetFont("Arial", "", 9)
		for _, t := range section.Tests {
			if pdf.GetY() > 270 {
				pdf.AddPage()
			}
			line := fmt.Sprintf("[%s] %s", strings.ToUpper(string(t.Outcome)), t.Name)
			if t.Domain != "" {
				line += " (" + t.Domain + ")"
			}
			if t.Error != "" {
				line += " - " + t.Error
			}
			pdf.MultiCell(0, 5, line, "", "", false)
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05 MST")
}

func formatLatency(ms float64) string {
	if ms <= 0 {
		return ""
	}
	return fmt.Sprintf("%.0fms", ms)
}
