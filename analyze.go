package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/n2digital-pt/lead-lens-n2/config"
	"github.com/n2digital-pt/lead-lens-n2/models"
	ai "github.com/n2digital-pt/lead-lens-n2/services/intelligence"
	"github.com/n2digital-pt/lead-lens-n2/services/export"
	"github.com/n2digital-pt/lead-lens-n2/utils"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a one-shot lead analysis in the terminal",
	Long: `analyze runs one of the three lead modes and prints the markdown analysis
followed by its citations. Use --csv to also write the citations to a file.`,
}

var analyzeImageCmd = &cobra.Command{
	Use:   "image",
	Short: "Analyse a business photo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			return fmt.Errorf("--file is required")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read photo: %w", err)
		}
		name, _ := cmd.Flags().GetString("name")
		notes, _ := cmd.Flags().GetString("notes")
		language, _ := cmd.Flags().GetString("language")

		return runAnalysis(cmd, func(ctx context.Context, svc ai.LeadService) (*models.Analysis, error) {
			return svc.AnalyzeImage(ctx, "", models.ImageLeadRequest{
				Image:        data,
				MIMEType:     mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
				FileName:     filepath.Base(path),
				BusinessName: name,
				Notes:        notes,
				Language:     language,
			})
		})
	},
}

var analyzeSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Google Maps for leads",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.MapSearchRequest{Query: strings.Join(args, " ")}
		req.Language, _ = cmd.Flags().GetString("language")
		if cmd.Flags().Changed("lat") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			req.Latitude = &lat
		}
		if cmd.Flags().Changed("lng") {
			lng, _ := cmd.Flags().GetFloat64("lng")
			req.Longitude = &lng
		}

		return runAnalysis(cmd, func(ctx context.Context, svc ai.LeadService) (*models.Analysis, error) {
			return svc.SearchMaps(ctx, "", req)
		})
	},
}

var analyzeAuditCmd = &cobra.Command{
	Use:   "audit <description>",
	Short: "Audit a business from a text description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.TextAuditRequest{Description: strings.Join(args, " ")}
		req.Website, _ = cmd.Flags().GetString("website")
		req.Language, _ = cmd.Flags().GetString("language")

		return runAnalysis(cmd, func(ctx context.Context, svc ai.LeadService) (*models.Analysis, error) {
			return svc.AuditText(ctx, "", req)
		})
	},
}

func init() {
	analyzeCmd.PersistentFlags().String("language", "", "answer language (default: DEFAULT_LANGUAGE)")
	analyzeCmd.PersistentFlags().String("csv", "", "write the citations to this CSV file")

	analyzeImageCmd.Flags().String("file", "", "path to the business photo")
	analyzeImageCmd.Flags().String("name", "", "business name")
	analyzeImageCmd.Flags().String("notes", "", "extra notes for the analyst")

	analyzeSearchCmd.Flags().Float64("lat", 0, "latitude to search around")
	analyzeSearchCmd.Flags().Float64("lng", 0, "longitude to search around")

	analyzeAuditCmd.Flags().String("website", "", "business website to read")

	analyzeCmd.AddCommand(analyzeImageCmd, analyzeSearchCmd, analyzeAuditCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalysis(cmd *cobra.Command, run func(context.Context, ai.LeadService) (*models.Analysis, error)) error {
	cfg := config.AppConfig
	logger := utils.GetLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, cleanup := newLeadService(ctx, cfg, ai.NewMemoryStore(cfg.ResultTTL()), logger)
	defer cleanup()

	analysis, err := run(ctx, svc)
	if err != nil {
		return err
	}

	printAnalysis(cmd.OutOrStdout(), analysis)

	if path, _ := cmd.Flags().GetString("csv"); path != "" {
		if err := writeCSV(path, analysis.Citations); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Citations written to %s\n", path)
	}
	return nil
}

func printAnalysis(w io.Writer, a *models.Analysis) {
	fmt.Fprintln(w, a.Text)
	if len(a.Citations) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Sources")
	for i, c := range a.Citations {
		line := fmt.Sprintf("%d. %s", i+1, c.Title)
		if c.Address != "" {
			line += " (" + c.Address + ")"
		}
		if c.URI != "" {
			line += " " + c.URI
		}
		fmt.Fprintln(w, line)
	}
}

func writeCSV(path string, citations []models.Citation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := export.WriteCitationsCSV(f, citations); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
