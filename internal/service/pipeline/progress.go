package pipeline

import (
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/dkrasnov/spotiport/internal/logger"
)

// newPhaseBar creates a per-phase progress bar, or nil when the log level is
// verbose enough that bar output would interleave with log lines.
func newPhaseBar(total int, description string) *progressbar.ProgressBar {
	if total == 0 || logger.Level() < zap.InfoLevel {
		return nil
	}

	return progressbar.Default(int64(total), description)
}

// advanceBar increments a possibly-nil progress bar.
func advanceBar(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}

	_ = bar.Add(1)
}

// finishBar completes a possibly-nil progress bar.
func finishBar(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}

	_ = bar.Finish()
}
