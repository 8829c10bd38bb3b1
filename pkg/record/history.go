package record

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry is one archived run: when it ran, its verdict and summary metrics,
// and the full point series so the history view can re-plot it.
type Entry struct {
	Started       time.Time     `yaml:"started"`
	Duration      time.Duration `yaml:"duration"`
	Verdict       string        `yaml:"verdict"`
	PassThreshold float64       `yaml:"pass_threshold"`
	MinVoltage    float64       `yaml:"min_voltage"`
	MaxVoltage    float64       `yaml:"max_voltage"`
	MaxCurrentMA  float64       `yaml:"max_current_ma"`
	MeanResOhm    float64       `yaml:"mean_resistance_ohm"`
	Points        []Point       `yaml:"points"`
}

// historyFile is the on-disk shape of the run log.
type historyFile struct {
	Runs []Entry `yaml:"runs"`
}

// History is the persisted log of finished runs. Every completed test is
// appended and the whole file rewritten, so past tests survive restarts and
// stay browsable. Not safe for concurrent use; callers serialize access.
type History struct {
	path    string
	entries []Entry
}

// NewHistory returns an empty history that will persist to path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// LoadHistory reads the run log from path. A missing file is an empty
// history, not an error.
func LoadHistory(path string) (*History, error) {
	h := NewHistory(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var file historyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	h.entries = file.Runs

	return h, nil
}

// Append archives a finished run with its summary and persists the log.
func (h *History) Append(run *Run, s Summary) error {
	entry := Entry{
		Started:       run.Started,
		Duration:      s.Duration,
		Verdict:       s.Verdict(),
		PassThreshold: s.PassThreshold,
		MinVoltage:    s.MinVoltage,
		MaxVoltage:    s.MaxVoltage,
		MaxCurrentMA:  s.MaxCurrentMA,
		MeanResOhm:    s.MeanResOhm,
		Points:        append([]Point(nil), run.Points()...),
	}
	h.entries = append(h.entries, entry)

	return h.save()
}

// Entries returns the archived runs, oldest first. The slice is shared;
// callers must not mutate it.
func (h *History) Entries() []Entry {
	return h.entries
}

// Len returns the number of archived runs.
func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) save() error {
	data, err := yaml.Marshal(historyFile{Runs: h.entries})
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(h.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}
