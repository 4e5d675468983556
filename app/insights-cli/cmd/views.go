package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"insuranceInsights/business/dashboard"
	"insuranceInsights/business/dataset"
	"insuranceInsights/domain"
	"insuranceInsights/internal/render"

	"github.com/spf13/cobra"
)

var (
	viewsDataPath    string
	viewsBMICategory string
	viewsAgeGroup    string
	viewsProductCode string
	viewsResponse    string
	viewsPreview     bool
	viewsXLSXPath    string
	viewsChart       string
	viewsPNGPath     string
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Compute the dashboard views for a CSV file and print them as JSON",
	Example: `  insights views --data "insurance data.csv" --bmi-category Normal --age-group 36-45
  insights views --data "insurance data.csv" --xlsx report.xlsx
  insights views --data "insurance data.csv" --chart age_group_counts --png ages.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if viewsDataPath == "" {
			return fmt.Errorf("--data is required")
		}
		if (viewsChart == "") != (viewsPNGPath == "") {
			return fmt.Errorf("--chart and --png must be used together")
		}

		filters, err := domain.ParseFilters(viewsBMICategory, viewsAgeGroup, viewsProductCode, viewsResponse)
		if err != nil {
			return err
		}

		svc, err := dashboard.NewDashboardService(dataset.NewCache(viewsDataPath), nil, dashboard.Options{CacheSize: 1})
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		d, rows, err := svc.Export(ctx, filters)
		if err != nil {
			return err
		}
		if viewsPreview {
			withPreview, err := svc.Dashboard(ctx, filters, true)
			if err != nil {
				return err
			}
			d = withPreview
		}

		if viewsXLSXPath != "" {
			if err := writeFile(viewsXLSXPath, func(f *os.File) error { return render.WriteWorkbook(d, rows, f) }); err != nil {
				return err
			}
		}
		if viewsChart != "" {
			if err := writeFile(viewsPNGPath, func(f *os.File) error { return render.RenderChart(viewsChart, d.Views, f) }); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	},
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(viewsCmd)
	viewsCmd.Flags().StringVar(&viewsDataPath, "data", "", "path to the applicant CSV")
	viewsCmd.Flags().StringVar(&viewsBMICategory, "bmi-category", domain.FilterAll, "BMI category filter")
	viewsCmd.Flags().StringVar(&viewsAgeGroup, "age-group", domain.FilterAll, "age group filter (e.g. 36-45)")
	viewsCmd.Flags().StringVar(&viewsProductCode, "product-code", domain.FilterAll, "product code filter")
	viewsCmd.Flags().StringVar(&viewsResponse, "response", domain.FilterAll, "response score filter")
	viewsCmd.Flags().BoolVar(&viewsPreview, "preview", false, "include the first rows of the filtered data")
	viewsCmd.Flags().StringVar(&viewsXLSXPath, "xlsx", "", "also write an XLSX workbook to this path")
	viewsCmd.Flags().StringVar(&viewsChart, "chart", "", "view to render as PNG")
	viewsCmd.Flags().StringVar(&viewsPNGPath, "png", "", "output path for --chart")
}
