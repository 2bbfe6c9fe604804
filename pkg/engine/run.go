package engine

import (
	"fmt"

	"github.com/E-Coombs/arch-setup/pkg/errors"
)

// Result summarizes a run
type Result struct {
	// Processed lists the modules executed, in execution order
	Processed []string

	// Warnings counts the non-fatal conditions logged during the run
	Warnings int

	// Declined is set when the user declined the confirmation gate;
	// nothing was processed in that case.
	Declined bool
}

// Run processes the requested modules in order. With no explicit request
// the whitespace-separated modules.enabled config value is used. The first
// fatal failure aborts the run, reporting the offending module; everything
// processed so far stays processed (no rollback, re-running is the
// recovery path).
func (e *Engine) Run(requested []string) (*Result, error) {
	if len(requested) == 0 {
		requested = e.store.GetList("modules.enabled")
	}

	if len(requested) == 0 {
		e.logger.Info().Msg("No modules requested and modules.enabled is empty, nothing to do")
		return e.result(), nil
	}

	e.logger.Info().Strs("modules", requested).Bool("dryRun", e.rc.DryRun).Msg("Starting run")

	if e.confirmer != nil {
		prompt := fmt.Sprintf("Proceed with setup of %d module(s)?", len(requested))
		if !e.confirmer.Confirm(prompt, true) {
			e.logger.Info().Msg("Run declined")
			result := e.result()
			result.Declined = true
			return result, nil
		}
	}

	for _, name := range requested {
		if e.processed[name] {
			continue
		}
		if err := e.Process(name); err != nil {
			return e.result(), errors.Wrapf(err, errors.GetErrorCode(err),
				"setup aborted at module %q", name)
		}
	}

	return e.result(), nil
}

func (e *Engine) result() *Result {
	processed := make([]string, len(e.order))
	copy(processed, e.order)
	return &Result{Processed: processed, Warnings: e.warnings}
}
