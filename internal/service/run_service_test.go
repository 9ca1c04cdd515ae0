package service

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-grade-report/internal/models"
	appErrors "github.com/noah-isme/sma-grade-report/pkg/errors"
	"github.com/noah-isme/sma-grade-report/pkg/storage"
)

type runFixture struct {
	dir     string
	svc     *RunService
	metrics *MetricsService
}

func newRunFixture(t *testing.T) *runFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	metrics := NewMetricsService()
	logger := zap.NewNop()
	svc := NewRunService(store, NewIngestionService(logger, metrics), NewReportService(logger, nil, nil), nil, metrics, logger)
	svc.newID = func() string { return "run-1" }
	return &runFixture{dir: dir, svc: svc, metrics: metrics}
}

func (f *runFixture) write(t *testing.T, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(strings.Join(lines, "\n")), 0o644))
}

func (f *runFixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	require.NoError(t, err)
	return string(data)
}

func (f *runFixture) exists(name string) bool {
	_, err := os.Stat(filepath.Join(f.dir, name))
	return err == nil
}

func defaultRequest() RunRequest {
	return RunRequest{NamesFile: "NameFile.txt", CoursesFile: "CourseFile.txt", OutputFile: "Output.txt"}
}

func TestRunWritesSortedReport(t *testing.T) {
	f := newRunFixture(t)
	f.write(t, "NameFile.txt", "002,Bob Stone", "001,Amy Lee", "bogus line")
	f.write(t, "CourseFile.txt", "002,MA101,100,100,100,100", "001,CP317,90,80,70,60", "777,CP317,1,1,1,1")

	result, err := f.svc.Run(defaultRequest())
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, models.ReportFormatText, result.Format)
	assert.Equal(t, filepath.Join(f.dir, "Output.txt"), result.OutputPath)
	assert.Equal(t, "001, Amy Lee, CP317, 72.0\n002, Bob Stone, MA101, 100.0\n", f.read(t, "Output.txt"))
	assert.Equal(t, 1, result.Stats.StudentsSkipped)
	assert.Equal(t, 1, result.Stats.EnrollmentsSkipped)

	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.Runs)
	assert.Zero(t, snap.FailedRuns)
	assert.Equal(t, uint64(4), snap.RecordsAccepted)
	assert.Equal(t, uint64(2), snap.RecordsSkipped)
}

func TestRunIsDeterministic(t *testing.T) {
	f := newRunFixture(t)
	f.write(t, "NameFile.txt", "003,Cy", "001,Amy", "002,Bob")
	f.write(t, "CourseFile.txt", "003,ZZ999,1,2,3,4", "001,CP317,90,80,70,60", "003,AA100,5,5,5,5", "002,MA101,60,60,60,60")

	_, err := f.svc.Run(defaultRequest())
	require.NoError(t, err)
	first := f.read(t, "Output.txt")

	_, err = f.svc.Run(defaultRequest())
	require.NoError(t, err)
	assert.Equal(t, first, f.read(t, "Output.txt"))
	assert.True(t, strings.HasSuffix(first, "003, Cy, ZZ999, 2.8\n003, Cy, AA100, 5.0\n"))
}

func TestRunWritesEmptyReportWhenNothingValid(t *testing.T) {
	f := newRunFixture(t)
	f.write(t, "NameFile.txt", "001,Amy")
	f.write(t, "CourseFile.txt", "999,CP317,90,80,70,60")

	result, err := f.svc.Run(defaultRequest())
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.True(t, f.exists("Output.txt"))
	assert.Empty(t, f.read(t, "Output.txt"))
}

func TestRunCSVFormat(t *testing.T) {
	f := newRunFixture(t)
	f.write(t, "NameFile.txt", "123456789,Alice King")
	f.write(t, "CourseFile.txt", "123456789,CP317,90,80,70,60")

	req := defaultRequest()
	req.OutputFile = "report.csv"
	req.Format = "CSV"
	_, err := f.svc.Run(req)
	require.NoError(t, err)
	assert.Equal(t, "Student ID,Student Name,Course Code,Final Grade\n123456789,Alice King,CP317,72.0\n", f.read(t, "report.csv"))
}

func TestRunFailsOnUnavailableInputs(t *testing.T) {
	cases := []struct {
		name  string
		setup func(f *runFixture, t *testing.T)
		cause error
	}{
		{"missing names", func(f *runFixture, t *testing.T) {
			f.write(t, "CourseFile.txt", "001,CP317,90,80,70,60")
		}, storage.ErrNotFound},
		{"empty courses", func(f *runFixture, t *testing.T) {
			f.write(t, "NameFile.txt", "001,Amy")
			f.write(t, "CourseFile.txt")
		}, storage.ErrEmptyFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRunFixture(t)
			tc.setup(f, t)

			_, err := f.svc.Run(defaultRequest())
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrInputUnavailable))
			assert.True(t, errors.Is(err, models.ErrResource))
			assert.True(t, errors.Is(err, tc.cause))
			assert.Equal(t, 1, appErrors.ExitCode(err))
			assert.False(t, f.exists("Output.txt"))
			assert.Equal(t, uint64(1), f.metrics.Snapshot().FailedRuns)
		})
	}
}

func TestRunFailsWhenOutputUnwritable(t *testing.T) {
	f := newRunFixture(t)
	f.write(t, "NameFile.txt", "001,Amy")
	f.write(t, "CourseFile.txt", "001,CP317,90,80,70,60")
	require.NoError(t, os.Mkdir(filepath.Join(f.dir, "Output.txt"), 0o755))

	_, err := f.svc.Run(defaultRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrOutputUnavailable))
	assert.True(t, errors.Is(err, storage.ErrUnwritable))
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	f := newRunFixture(t)

	req := defaultRequest()
	req.Format = "xml"
	_, err := f.svc.Run(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 2, appErrors.ExitCode(err))

	_, err = f.svc.Run(RunRequest{NamesFile: "a", CoursesFile: "b"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestPreviewDefaultsToJSON(t *testing.T) {
	f := newRunFixture(t)

	result, err := f.svc.Preview("", PreviewRequest{
		Names:   strings.NewReader("002,Bob\n001,Amy\n"),
		Courses: strings.NewReader("001,CP317,90,80,70,60\n002,MA101,100,100,100,100\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, models.ReportFormatJSON, result.Format)

	var rows []models.ReportRow
	require.NoError(t, json.Unmarshal(result.Payload, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "001", rows[0].StudentID)
	assert.InDelta(t, 72.0, rows[0].FinalGrade, 1e-9)
	assert.False(t, f.exists("Output.txt"))
}

func TestPreviewValidatesInput(t *testing.T) {
	f := newRunFixture(t)

	_, err := f.svc.Preview("req-9", PreviewRequest{Names: strings.NewReader("001,Amy")})
	assert.True(t, errors.Is(err, appErrors.ErrInputUnavailable))

	_, err = f.svc.Preview("req-9", PreviewRequest{
		Names:   strings.NewReader("001,Amy"),
		Courses: strings.NewReader(""),
		Format:  "docx",
	})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestRunTagsSkippedRecordWarningsWithRunID(t *testing.T) {
	f := newRunFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	f.svc.logger = zap.New(core)
	f.write(t, "NameFile.txt", "001,Amy")
	f.write(t, "CourseFile.txt", "001,CP317,90,80,70,60", "001,CP317,10,10,10,10")

	_, err := f.svc.Run(defaultRequest())
	require.NoError(t, err)

	skipped := logs.FilterMessage("skipping record").All()
	require.Len(t, skipped, 1)
	fields := skipped[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, string(models.KindUniqueness), fields["kind"])
	assert.Equal(t, int64(2), fields["line"])
}

func TestRunSurvivesOversizedLine(t *testing.T) {
	f := newRunFixture(t)
	f.write(t, "NameFile.txt", "001,Amy", strings.Repeat("z", 2<<20), "002,Bob")
	f.write(t, "CourseFile.txt", "001,CP317,90,80,70,60", "002,MA101,100,100,100,100")

	result, err := f.svc.Run(defaultRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.StudentsSkipped)
	assert.Equal(t, "001, Amy, CP317, 72.0\n002, Bob, MA101, 100.0\n", f.read(t, "Output.txt"))
}
