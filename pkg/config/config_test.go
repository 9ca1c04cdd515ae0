package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "NameFile.txt", cfg.Input.NamesFile)
	assert.Equal(t, "CourseFile.txt", cfg.Input.CoursesFile)
	assert.Equal(t, "Output.txt", cfg.Report.OutputFile)
	assert.Equal(t, "text", cfg.Report.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(5*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Nil(t, cfg.Server.AllowedOrigins)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("NAMES_FILE", "students.txt")
	t.Setenv("REPORT_FORMAT", "CSV")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "students.txt", cfg.Input.NamesFile)
	assert.Equal(t, "csv", cfg.Report.Format)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(5*1024*1024), cfg.Server.MaxUploadBytes)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("OUTPUT_FILE", "env.txt")
	t.Setenv("COURSES_FILE", "env-courses.txt")

	flags := pflag.NewFlagSet("grade-report", pflag.ContinueOnError)
	flags.String("output", "Output.txt", "")
	flags.String("courses", "CourseFile.txt", "")
	require.NoError(t, flags.Parse([]string{"--output", "flag.txt"}))

	cfg, err := LoadWithFlags(flags)
	require.NoError(t, err)
	assert.Equal(t, "flag.txt", cfg.Report.OutputFile)
	// unset flags leave the environment in charge
	assert.Equal(t, "env-courses.txt", cfg.Input.CoursesFile)
}
