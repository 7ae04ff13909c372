package ui

import "github.com/cwbudde/algo-qchannel/internal/render"

// FileStartMsg indicates a file has started rendering.
type FileStartMsg struct {
	FileIndex int
}

// ProgressMsg is a progress update for the current file.
type ProgressMsg struct {
	render.Progress
}

// FileCompleteMsg indicates the current file has finished.
type FileCompleteMsg struct {
	FileIndex  int
	OutputPath string
	Report     *render.Report
	Err        error
}

// AllCompleteMsg indicates all files have been processed.
type AllCompleteMsg struct{}
