package uploads

import "fmt"

// ProgressUpdate represents a progress event during a batch upload.
//
// Completed counts only terminal outcomes (success or failure); per-file byte
// progress never advances it.
type ProgressUpdate struct {
	Phase     Phase
	File      string // title of the file this event concerns, if any
	Index     int    // 1-based position of the file within the batch
	Percent   int    // transmission percentage for the current file
	Completed int    // files with a terminal outcome so far
	Total     int    // files in the batch
	Message   string // human-readable message for display
}

// Batch upload phase enumeration
type Phase int

const (
	BatchStart Phase = iota
	FileStart
	FileProgress
	FileDone
	FileFailed
	BatchDone
)

func (p Phase) String() string {
	switch p {
	case BatchStart:
		return "batch_start"
	case FileStart:
		return "file_start"
	case FileProgress:
		return "file_progress"
	case FileDone:
		return "file_done"
	case FileFailed:
		return "file_failed"
	case BatchDone:
		return "batch_done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls the upload.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func batchStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchStart,
		Total:   total,
		Message: fmt.Sprintf("Uploading %d files...", total),
	}
}

func fileStartUpdate(index, completed, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     FileStart,
		File:      title,
		Index:     index,
		Completed: completed,
		Total:     total,
		Message:   fmt.Sprintf("[%d/%d] Uploading: %s...", index, total, title),
	}
}

func fileProgressUpdate(index, completed, total int, title string, percent int) ProgressUpdate {
	return ProgressUpdate{
		Phase:     FileProgress,
		File:      title,
		Index:     index,
		Percent:   percent,
		Completed: completed,
		Total:     total,
		Message:   fmt.Sprintf("[%d/%d] %s: %d%%", index, total, title, percent),
	}
}

func fileDoneUpdate(completed, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     FileDone,
		File:      title,
		Percent:   100,
		Completed: completed,
		Total:     total,
		Message:   fmt.Sprintf("[%d/%d] ✓ %s", completed, total, title),
	}
}

func fileFailedUpdate(completed, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:     FileFailed,
		File:      title,
		Completed: completed,
		Total:     total,
		Message:   fmt.Sprintf("[%d/%d] ✗ %s: %v", completed, total, title, err),
	}
}

func batchDoneUpdate(succeeded, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:     BatchDone,
		Completed: total,
		Total:     total,
		Message:   fmt.Sprintf("Batch complete: %d/%d succeeded", succeeded, total),
	}
}
