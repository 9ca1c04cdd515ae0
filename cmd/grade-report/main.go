package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-grade-report/internal/service"
	"github.com/noah-isme/sma-grade-report/pkg/config"
	appErrors "github.com/noah-isme/sma-grade-report/pkg/errors"
	"github.com/noah-isme/sma-grade-report/pkg/logger"
	"github.com/noah-isme/sma-grade-report/pkg/storage"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("grade-report", pflag.ContinueOnError)
	flags.String("names", "NameFile.txt", "identity table, one `id,name` per line")
	flags.String("courses", "CourseFile.txt", "enrollment table, one `id,code,test1,test2,test3,exam` per line")
	flags.String("output", "Output.txt", "report destination")
	flags.String("format", "text", "report format: text, csv or pdf")
	flags.String("title", "Final Grades", "title for csv and pdf reports")
	flags.String("data-dir", ".", "directory relative file names are resolved against")
	flags.String("log-level", "info", "debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer logr.Sync() //nolint:errcheck

	store, err := storage.NewLocalStorage(cfg.Input.BaseDir)
	if err != nil {
		logr.Error("open data directory", zap.Error(err))
		return 1
	}

	metricsSvc := service.NewMetricsService()
	runSvc := service.NewRunService(
		store,
		service.NewIngestionService(logr, metricsSvc),
		service.NewReportService(logr, nil, nil),
		validator.New(),
		metricsSvc,
		logr,
	)

	result, err := runSvc.Run(service.RunRequest{
		NamesFile:   cfg.Input.NamesFile,
		CoursesFile: cfg.Input.CoursesFile,
		OutputFile:  cfg.Report.OutputFile,
		Format:      cfg.Report.Format,
		Title:       cfg.Report.Title,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "grade-report: %v\n", err)
		return appErrors.ExitCode(err)
	}

	stats := result.Stats
	fmt.Fprintf(os.Stderr, "wrote %d rows to %s (students %d, skipped %d, enrollments skipped %d)\n",
		len(result.Rows), result.OutputPath, stats.StudentsLoaded, stats.StudentsSkipped, stats.EnrollmentsSkipped)
	return 0
}
