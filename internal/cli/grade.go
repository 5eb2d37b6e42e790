package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"exam-grader/internal/domain"
	"exam-grader/internal/grading"
)

// NewGradeCmd grades text files offline and prints the report as JSON.
func NewGradeCmd(configPath *string) *cobra.Command {
	var (
		studentPath  string
		answerPath   string
		marksPath    string
		keywordsPath string
		threshold    int
	)
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a student answer file against an answer key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			sub := domain.Submission{}
			for _, f := range []struct {
				path string
				dst  *string
			}{
				{studentPath, &sub.StudentText},
				{answerPath, &sub.AnswerKey},
				{marksPath, &sub.MarksKey},
				{keywordsPath, &sub.KeywordsKey},
			} {
				if f.path == "" {
					continue
				}
				data, err := os.ReadFile(f.path)
				if err != nil {
					return fmt.Errorf("read %s: %w", f.path, err)
				}
				*f.dst = string(data)
			}

			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Grading.KeywordThreshold
			}
			report := grading.NewEngine(grading.WithKeywordThreshold(threshold)).Evaluate(sub)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&studentPath, "student", "", "file with one student answer per line")
	cmd.Flags().StringVar(&answerPath, "answer-key", "", "file with one reference answer per line")
	cmd.Flags().StringVar(&marksPath, "marks", "", "file with the marks of each question, one per line")
	cmd.Flags().StringVar(&keywordsPath, "keywords", "", "file with comma-separated keywords per question")
	cmd.Flags().IntVar(&threshold, "threshold", grading.DefaultKeywordThreshold, "keyword match threshold (0-100)")
	_ = cmd.MarkFlagRequired("student")
	_ = cmd.MarkFlagRequired("answer-key")
	return cmd
}
