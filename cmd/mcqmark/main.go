package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mcqmark/internal/analytics"
	"mcqmark/internal/answerkey"
	"mcqmark/internal/capture"
	"mcqmark/internal/exam"
	"mcqmark/internal/export"
	"mcqmark/internal/grading"
	appI18n "mcqmark/internal/i18n"
	"mcqmark/internal/imaging"
	"mcqmark/internal/model"
	"mcqmark/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcqmark",
		Short: "Grade multiple-choice answer sheets from photos",
	}
	root.AddCommand(gradeCmd(), resultsCmd(), statsCmd(), exportCmd(), clearCmd())
	return root
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Submit an answer-sheet image for grading",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.StringP("image", "i", "", "Path to the answer-sheet image")
	f.IntP("questions", "n", 0, "Number of questions on the sheet (1-60)")
	f.StringP("key", "k", "", "Answer key letters A-E, e.g. ABCDE")
	f.String("service-url", "http://localhost:3000", "Grading service base URL")
	f.String("db", "mcqmark.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Output language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("questions")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func resultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List stored exam results, most recent first",
		RunE:  runResults,
	}
	f := cmd.Flags()
	f.String("db", "mcqmark.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Output language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics over stored results",
		RunE:  runStats,
	}
	f := cmd.Flags()
	f.String("db", "mcqmark.db", "SQLite database path")
	f.Int("recent", analytics.DefaultRecentWindow, "Number of recent exams to show")
	f.StringP("lang", "l", "en", "Output language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored results as JSON or Excel",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "mcqmark.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("format", "json", "Output format (json, xlsx)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase all stored results",
		RunE:  runClear,
	}
	f := cmd.Flags()
	f.String("db", "mcqmark.db", "SQLite database path")
	f.BoolP("yes", "y", false, "Skip the confirmation prompt")
	f.StringP("lang", "l", "en", "Output language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("MCQMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("mcqmark")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mcqmark")
	v.AddConfigPath("/etc/mcqmark")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func initLang(v *viper.Viper) error {
	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	return nil
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	if err := initLang(v); err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	controller := capture.NewController(nil, &capture.FileGallery{Path: v.GetString("image")})
	pipeline := exam.NewPipeline(
		controller,
		imaging.NewNormalizer(),
		grading.New(v.GetString("service-url")),
		db,
	)

	rec, ok, err := pipeline.GradeFromGallery(cmd.Context(), v.GetInt("questions"), v.GetString("key"))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(appI18n.T("SelectionCancelled"))
		return nil
	}

	printResult(os.Stdout, rec, v.GetString("key"))
	return nil
}

func printResult(w io.Writer, rec model.StoredExamResult, letters string) {
	fmt.Fprintln(w, appI18n.Td("ResultSummary", map[string]any{
		"Score":      rec.Score,
		"Total":      rec.Total,
		"Percentage": fmt.Sprintf("%.1f", rec.Percentage),
		"Grade":      rec.Grade,
	}))
	fmt.Fprintln(w, appI18n.Td("ResultSaved", map[string]any{"ID": rec.ID}))

	key, err := answerkey.Encode(letters, rec.Total)
	if err != nil {
		return
	}
	fmt.Fprintln(w, appI18n.T("PerQuestion"))
	for i, correct := range rec.Grading {
		mark := "✗"
		if correct {
			mark = "✓"
		}
		fmt.Fprintf(w, "%3d  %c  %s\n", i+1, byte('A'+key[i]), mark)
	}
}

func runResults(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	if err := initLang(v); err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	records, err := db.LoadAll()
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	if len(records) == 0 {
		fmt.Println(appI18n.T("NoResults"))
		return nil
	}

	fmt.Println(appI18n.Tp("ExamsGraded", len(records)))
	// The log is in append order; walk it backwards for most recent first.
	for i := len(records) - 1; i >= 0; i-- {
		printResultLine(os.Stdout, records[i])
	}
	return nil
}

func printResultLine(w io.Writer, rec model.StoredExamResult) {
	fmt.Fprintf(w, "  %s  %3d/%-3d  %5.1f%%  %s  %s\n",
		formatTimestamp(rec.Timestamp), rec.Score, rec.Total, rec.Percentage, rec.Grade, rec.ID)
}

func formatTimestamp(millis int64) string {
	return time.UnixMilli(millis).Format("2006-01-02 15:04")
}

func runStats(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	if err := initLang(v); err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	records, err := db.LoadAll()
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}

	engine := &analytics.Engine{RecentWindow: v.GetInt("recent")}
	snapshot := engine.Analyze(records)

	if snapshot.TotalExams == 0 {
		fmt.Println(appI18n.T("NoResults"))
		return nil
	}

	fmt.Println(appI18n.Tp("ExamsGraded", snapshot.TotalExams))
	fmt.Println(appI18n.Td("AverageScore", map[string]any{"Average": fmt.Sprintf("%.1f", snapshot.AverageScore)}))
	fmt.Println(appI18n.Td("PassRate", map[string]any{"PassRate": fmt.Sprintf("%.1f", snapshot.PassRate)}))

	fmt.Println(appI18n.T("GradeDistribution"))
	for _, grade := range []string{"A", "B", "C", "D", "E", "F"} {
		fmt.Printf("  %s: %d\n", grade, snapshot.GradeDistribution[grade])
	}

	fmt.Println(appI18n.T("RecentExams"))
	for _, rec := range snapshot.RecentExams {
		printResultLine(os.Stdout, rec)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ex, err := db.ExportAll()
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	format := strings.ToLower(v.GetString("format"))
	outPath := v.GetString("output")

	var w io.Writer
	if outPath == "" || outPath == "-" {
		if format == "xlsx" {
			return fmt.Errorf("xlsx export requires --output with a file path")
		}
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return export.WriteJSON(w, ex)
	case "xlsx":
		return export.WriteXLSX(w, ex)
	default:
		return fmt.Errorf("unknown format %q (json, xlsx)", format)
	}
}

func runClear(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	if err := initLang(v); err != nil {
		return err
	}

	if !v.GetBool("yes") && !confirm(os.Stdin, os.Stdout) {
		fmt.Println(appI18n.T("ClearAborted"))
		return nil
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.ClearAll(); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	fmt.Println(appI18n.T("ClearDone"))
	return nil
}

func confirm(r io.Reader, w io.Writer) bool {
	fmt.Fprint(w, appI18n.T("ClearPrompt"))
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
