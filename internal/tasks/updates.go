package tasks

import (
	"fmt"

	"github.com/desertthunder/farewatch/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SweepStart Phase = iota
	CheckRequest
	CheckDone
	CheckFailed
	ExportStart
	ExportRequest
	ExportDone
	ExportFailed
)

func (p Phase) String() string {
	switch p {
	case SweepStart:
		return "sweep_start"
	case CheckRequest:
		return "check_request"
	case CheckDone:
		return "check_done"
	case CheckFailed:
		return "check_failed"
	case ExportStart:
		return "export_start"
	case ExportRequest:
		return "export_request"
	case ExportDone:
		return "export_done"
	case ExportFailed:
		return "export_failed"
	default:
		return ""
	}
}

func sweepStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SweepStart,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Checking %d active tracking requests...", total),
	}
}

func checkingRequestUpdate(step, total int, req *models.TrackingRequest) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckRequest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking %s...", step, total, req.Route()),
	}
}

func checkCompletedUpdate(step, total int, result *CheckResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s: %.2f %s", step, total, result.Request.Route(), result.Quote.Price, result.Quote.Currency)
	if result.Baseline {
		msg += " (baseline)"
	} else if result.ChangePct != 0 {
		msg += fmt.Sprintf(" (%+.1f%%)", result.ChangePct)
	}
	return ProgressUpdate{
		Phase:   CheckDone,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    result,
	}
}

func checkFailedUpdate(step, total int, req *models.TrackingRequest, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, req.Route(), err),
	}
}

func exportStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportStart,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Exporting %d tracking requests...", total),
	}
}

func exportingRequestUpdate(step, total int, route string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRequest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting %s...", step, total, route),
	}
}

func exportCompletedUpdate(step, total int, route string, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, route, files),
	}
}

func exportFailedUpdate(step, total int, route string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, route, err),
	}
}
