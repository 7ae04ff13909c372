// Package ui provides the Bubbletea progress view for batch rendering.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-qchannel/internal/render"
)

// FileStatus is the processing state of one file.
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusRendering
	StatusComplete
	StatusError
)

// FileProgress tracks one input file.
type FileProgress struct {
	InputPath  string
	OutputPath string
	Status     FileStatus

	Progress  float64
	Level     float64 // dBFS of the last reported block
	PeakLevel float64
	StartTime time.Time
	Elapsed   time.Duration

	Report *render.Report
	Err    error
}

// Model is the Bubbletea model of a batch render.
type Model struct {
	Title        string
	Files        []FileProgress
	CurrentIndex int
	Completed    int
	Failed       int
	Done         bool
	Cancelled    bool

	Width int
}

// NewModel creates a model for the given inputs.
func NewModel(title string, inputs []string) Model {
	files := make([]FileProgress, len(inputs))
	for i, path := range inputs {
		files[i] = FileProgress{InputPath: path, PeakLevel: silenceFloor}
	}

	return Model{Title: title, Files: files, CurrentIndex: -1}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Cancelled = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case FileStartMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			m.CurrentIndex = msg.FileIndex
			f := &m.Files[msg.FileIndex]
			f.Status = StatusRendering
			f.StartTime = time.Now()
		}

	case ProgressMsg:
		if f := m.current(); f != nil {
			f.Progress = msg.Fraction
			f.Elapsed = time.Since(f.StartTime)

			if msg.OutputRMS_dB > silenceFloor {
				f.Level = msg.OutputRMS_dB
				f.PeakLevel = max(f.PeakLevel, msg.OutputRMS_dB)
			}
		}

	case FileCompleteMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			f := &m.Files[msg.FileIndex]
			f.OutputPath = msg.OutputPath
			f.Report = msg.Report
			f.Err = msg.Err
			f.Progress = 1
			f.Elapsed = time.Since(f.StartTime)

			if msg.Err != nil {
				f.Status = StatusError
				m.Failed++
			} else {
				f.Status = StatusComplete
				m.Completed++
			}
		}

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	if m.Done {
		return renderSummary(m)
	}

	return renderProgress(m)
}

func (m *Model) current() *FileProgress {
	if m.CurrentIndex < 0 || m.CurrentIndex >= len(m.Files) {
		return nil
	}

	return &m.Files[m.CurrentIndex]
}
