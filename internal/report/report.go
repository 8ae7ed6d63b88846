// Package report renders an owner's budgets for the admin CLI as a terminal
// table, YAML or PDF.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"financas/internal/core"
)

type (
	FixedCostLine struct {
		Name       string `yaml:"name"`
		Amount     string `yaml:"amount"`
		Percentage string `yaml:"percentage"`
	}

	BudgetLine struct {
		ID                    string          `yaml:"id"`
		TotalAmount           string          `yaml:"total_amount"`
		ExtraIncome           string          `yaml:"extra_income"`
		Total                 string          `yaml:"total"`
		ExtraIncomePercentage string          `yaml:"extra_income_percentage"`
		FixedCosts            []FixedCostLine `yaml:"fixed_costs,omitempty"`
		UpdatedAt             string          `yaml:"updated_at"`
	}

	Report struct {
		Owner       string       `yaml:"owner"`
		GeneratedAt string       `yaml:"generated_at"`
		Budgets     []BudgetLine `yaml:"budgets"`
	}
)

// Build turns stored budgets into report lines. Amounts keep two decimals.
func Build(owner string, budgets []core.Budget, now time.Time) Report {
	r := Report{
		Owner:       owner,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Budgets:     make([]BudgetLine, 0, len(budgets)),
	}
	for _, b := range budgets {
		line := BudgetLine{
			ID:                    b.ID,
			TotalAmount:           b.TotalAmount.StringFixed(2),
			ExtraIncome:           b.ExtraIncome.StringFixed(2),
			Total:                 b.Total.StringFixed(2),
			ExtraIncomePercentage: core.FormatPercent(b.ExtraIncomePercentage),
		}
		if !b.UpdatedAt.IsZero() {
			line.UpdatedAt = b.UpdatedAt.UTC().Format(time.RFC3339)
		}
		for _, fc := range b.FixedCosts {
			line.FixedCosts = append(line.FixedCosts, FixedCostLine{
				Name:       fc.Name,
				Amount:     fc.Amount.StringFixed(2),
				Percentage: core.FormatPercent(fc.Percentage),
			})
		}
		r.Budgets = append(r.Budgets, line)
	}
	return r
}

func (l BudgetLine) fixedCostSummary() string {
	parts := make([]string, 0, len(l.FixedCosts))
	for _, fc := range l.FixedCosts {
		parts = append(parts, fmt.Sprintf("%s %s (%s%%)", fc.Name, fc.Amount, fc.Percentage))
	}
	return strings.Join(parts, "; ")
}

// TableData is the pterm table for r, header first.
func (r Report) TableData() pterm.TableData {
	data := pterm.TableData{{"ID", "Total amount", "Extra income", "Total", "Extra %", "Fixed costs"}}
	for _, l := range r.Budgets {
		data = append(data, []string{
			l.ID, l.TotalAmount, l.ExtraIncome, l.Total, l.ExtraIncomePercentage + "%", l.fixedCostSummary(),
		})
	}
	return data
}

// RenderTable prints r as a boxed table.
func (r Report) RenderTable() error {
	pterm.DefaultSection.Printfln("Budgets of %s", r.Owner)
	if len(r.Budgets) == 0 {
		pterm.Info.Println("No budgets found")
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(r.TableData()).Render()
}

func (r Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}

// WritePDF writes r to path and returns its absolute form.
func (r Report) WritePDF(path string) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  Budgets of "+r.Owner), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(50, 50, 50)
	pdf.CellFormat(0, 7, tr("  Generated at "+r.GeneratedAt), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	if len(r.Budgets) == 0 {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 8, "No budgets found")
	}

	widths := []float64{38, 38, 38, 38, 38}
	heads := []string{"Total amount", "Extra income", "Total", "Extra %", "Updated"}
	for _, l := range r.Budgets {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.Cell(0, 8, tr("Budget "+l.ID))
		pdf.Ln(7)
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(2)

		pdf.SetFont("Arial", "B", 9)
		for i, h := range heads {
			pdf.CellFormat(widths[i], 6, h, "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		vals := []string{l.TotalAmount, l.ExtraIncome, l.Total, l.ExtraIncomePercentage + "%", l.UpdatedAt}
		for i, v := range vals {
			pdf.CellFormat(widths[i], 6, tr(v), "", 0, "L", false, 0, "")
		}
		pdf.Ln(8)

		for _, fc := range l.FixedCosts {
			pdf.CellFormat(100, 5, tr("  "+fc.Name), "", 0, "L", false, 0, "")
			pdf.CellFormat(45, 5, fc.Amount, "", 0, "R", false, 0, "")
			pdf.CellFormat(45, 5, fc.Percentage+"%", "", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf report: %w", err)
	}
	return filepath.Abs(path)
}
