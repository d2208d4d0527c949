package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/fit-signals/internal/analysis"
	"github.com/spigell/fit-signals/internal/contract"
	"github.com/spigell/fit-signals/internal/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare a resume with a job description and print the verdict as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("jd", "", "file with the job description (- reads stdin)")
	analyzeCmd.Flags().String("resume", "", "file with the resume (- reads stdin)")
	analyzeCmd.Flags().String("variant", "", "schema variant (default is contract.default-variant)")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "choose the schema variant interactively")
	analyzeCmd.Flags().Bool("advice", false, "also ask for resume advice and interview questions")

	analyzeCmd.MarkFlagRequired("jd")
	analyzeCmd.MarkFlagRequired("resume")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	in, err := readInput(cmd.Flag("jd").Value.String(), cmd.Flag("resume").Value.String(), os.Stdin)
	if err != nil {
		logger.Fatal("reading input documents", zap.Error(err))
	}

	analyzer, err := newAnalyzer(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the analyzer", zap.Error(err))
	}

	variant := cmd.Flag("variant").Value.String()
	if variant == "" {
		variant = config.Contract.DefaultVariant
	}
	if cmd.Flag("interactive").Value.String() == "true" {
		variant, err = selectVariant(analyzer.Registry())
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	outcome, err := analyzer.Analyze(ctx, variant, in)
	if err != nil {
		logger.Fatal("analyzing", zap.String("variant", variant), zap.Error(err))
	}

	logOutcome(logger, outcome)

	var payload any = outcome.Result
	if cmd.Flag("advice").Value.String() == "true" {
		out := map[string]any{"result": outcome.Result}
		advice, err := analyzer.Advise(ctx, in)
		if err != nil {
			logger.Error("advice failed", zap.Error(err))
		} else {
			out["advice"] = advice
		}
		payload = out
	}

	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		logger.Fatal("encoding the result", zap.Error(err))
	}
	fmt.Println(string(pretty))
}

func logOutcome(logger *zap.Logger, outcome contract.Outcome) {
	fields := []zap.Field{
		zap.String("variant", outcome.Variant),
		zap.String("stage", string(outcome.Stage)),
		zap.Bool("fallback", outcome.IsFallback()),
	}

	if outcome.Variant == contract.VariantProfile && !outcome.IsFallback() {
		report, err := contract.DecodeProfile(outcome.Result)
		if err != nil {
			logger.Warn("decoding profile result", zap.Error(err))
		} else {
			fields = append(fields,
				zap.Float64("overall_score", report.MatchScores.Overall),
				zap.Int("suggestions", len(report.Suggestions)),
				zap.Int("interview_questions", len(report.InterviewPrep)),
			)
		}
	}

	logger.Info("analysis finished", fields...)
}

func selectVariant(registry *contract.Registry) (string, error) {
	prompt := promptui.Select{
		Label: "Schema variant",
		Items: registry.Variants(),
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}?",
			Active:   "> {{ .Name | cyan }} ({{ .Description }})",
			Inactive: "  {{ .Name }} ({{ .Description }})",
			Selected: "variant: {{ .Name }}",
		},
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return registry.Variants()[idx].Name, nil
}

// readInput loads both documents; at most one of them may come from stdin.
func readInput(jdPath, resumePath string, stdin io.Reader) (analysis.Input, error) {
	if jdPath == "-" && resumePath == "-" {
		return analysis.Input{}, fmt.Errorf("only one of --jd and --resume can read stdin")
	}

	jd, err := readDocument(jdPath, stdin)
	if err != nil {
		return analysis.Input{}, fmt.Errorf("job description: %w", err)
	}
	resume, err := readDocument(resumePath, stdin)
	if err != nil {
		return analysis.Input{}, fmt.Errorf("resume: %w", err)
	}

	in := analysis.Input{JobDescription: jd, Resume: resume}
	return in, in.Validate()
}

func readDocument(path string, stdin io.Reader) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("file is required")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
