package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"skardu_hotels/internal/domain"
)

// NewLogger returns a zerolog Logger.
// APP_ENV=dev (or development) uses a human-friendly console writer.
func NewLogger(env string) zerolog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, w io.Writer) zerolog.Logger {
	if env == "dev" || env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Reporter logs pipeline diagnostics through zerolog and counts them.
type Reporter struct {
	l zerolog.Logger
}

func NewReporter(l zerolog.Logger) *Reporter {
	return &Reporter{l: l.With().Str("component", "pipeline").Logger()}
}

var _ domain.Reporter = (*Reporter)(nil)

func (r *Reporter) FileProcessed(path string, accepted, rejected int) {
	ObservePipelineFile("ok")
	ObservePipelineRecords("accepted", accepted)
	ObservePipelineRecords("rejected", rejected)
	r.l.Info().
		Str("file", path).
		Int("accepted", accepted).
		Int("rejected", rejected).
		Msg("raw file processed")
}

func (r *Reporter) FileFailed(path string, err error) {
	ObservePipelineFile("failed")
	r.l.Error().Str("file", path).Err(err).Msg("raw file skipped")
}

func (r *Reporter) RecordRejected(path string, rej domain.Rejection) {
	r.l.Warn().
		Str("file", path).
		Str("hotel", rej.RawName).
		Str("reason", rej.Reason.Error()).
		Msg("skipping hotel due to missing required fields")
}

func (r *Reporter) ArtifactsWritten(paths domain.ArtifactPaths, count int) {
	ObservePipelineArtifact("json", "ok")
	ObservePipelineArtifact("csv", "ok")
	r.l.Info().
		Str("json", paths.JSON).
		Str("csv", paths.CSV).
		Int("hotels", count).
		Msg("processed hotels saved")
}

func (r *Reporter) ArtifactFailed(err error) {
	ObservePipelineArtifact("pair", "failed")
	r.l.Error().Err(err).Msg("writing processed artifacts failed")
}

func (r *Reporter) RunCompleted(total, files, failedFiles int) {
	r.l.Info().
		Int("hotels", total).
		Int("files", files).
		Int("failed_files", failedFiles).
		Msg("processing run completed")
}
