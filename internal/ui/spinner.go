package ui

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/wskops/wskctl/internal/constants"
)

// Spinner shows that a wait is in progress. A disabled spinner prints nothing.
type Spinner struct {
	bar *progressbar.ProgressBar
}

func NewSpinner(w io.Writer, description string, enabled bool) *Spinner {
	if !enabled {
		return &Spinner{}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(constants.ProgressSpinnerType),
		progressbar.OptionThrottle(constants.ThrottleDuration),
		progressbar.OptionClearOnFinish(),
	)
	return &Spinner{bar: bar}
}

// Tick advances the spinner after one attempt.
func (s *Spinner) Tick() {
	if s.bar != nil {
		_ = s.bar.Add(1)
	}
}

// Describe replaces the text next to the spinner.
func (s *Spinner) Describe(description string) {
	if s.bar != nil {
		s.bar.Describe(description)
	}
}

// Done clears the spinner.
func (s *Spinner) Done() {
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}
