package cli

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exam-grader/internal/app"
)

// NewOCRCmd recognizes local image or PDF files and prints the OCR result.
func NewOCRCmd(configPath *string) *cobra.Command {
	var (
		lang     string
		textOnly bool
	)
	cmd := &cobra.Command{
		Use:   "ocr [files...]",
		Short: "Recognize answer sheets (images or PDFs)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ingest, readers := newIngestService(cfg, logger, nil)
			defer func() {
				if err := readers.Close(); err != nil {
					logger.Warn("closing ocr readers", zap.Error(err))
				}
			}()

			uploads := make([]app.Upload, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				uploads = append(uploads, app.Upload{
					Filename:    filepath.Base(path),
					ContentType: mime.TypeByExtension(filepath.Ext(path)),
					Data:        data,
				})
			}

			result, err := ingest.OCR(cmd.Context(), lang, uploads)
			if err != nil {
				return err
			}
			if textOnly {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Text)
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "recognition language (en or ta, default from config)")
	cmd.Flags().BoolVar(&textOnly, "text", false, "print only the joined text")
	return cmd
}
