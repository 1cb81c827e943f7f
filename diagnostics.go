package xodr2net

import (
	"fmt"

	"go.uber.org/zap"
)

// diagnostics collects non-fatal findings of the pipeline. Every warning goes
// to the structured logger and bumps a counter so callers can tell how noisy
// the input was
type diagnostics struct {
	log      *zap.Logger
	warnings int
}

func newDiagnostics(log *zap.Logger) *diagnostics {
	if log == nil {
		log = zap.NewNop()
	}
	return &diagnostics{log: log}
}

func (d *diagnostics) Warnf(format string, args ...interface{}) {
	d.warnings++
	d.log.Warn(fmt.Sprintf(format, args...))
}

func (d *diagnostics) Warnings() int {
	return d.warnings
}
