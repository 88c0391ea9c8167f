// Package schedules reads the medicine list kept by the schedules editor.
package schedules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"medicine_reminder/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const everyday = "everyday"

// medicineID accepts both string and numeric ids.
type medicineID string

func (id *medicineID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", node.Line)
	}
	*id = medicineID(node.Value)
	return nil
}

// medicine is one entry as the editor stores it.
type medicine struct {
	ID           medicineID `yaml:"id"`
	PatName      string     `yaml:"patName"`
	Name         string     `yaml:"name"`
	Dosage       string     `yaml:"dosage"`
	MealRelation string     `yaml:"mealRelation"`
	Frequency    string     `yaml:"frequency"`
	Days         []string   `yaml:"days"`
	Times        []string   `yaml:"times"`
}

// FileSource is a schedule.Source over a YAML (or JSON) file. The file is
// re-read on every List so edits apply on the next tick.
type FileSource struct {
	path   string
	logger *logrus.Entry
}

func NewFileSource(path string, logger *logrus.Entry) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// List returns the schedules in file order. A missing file is an empty list.
// Ids are unique: an entry repeating an explicit id is skipped, and entries
// without one get an id derived from their content.
func (s *FileSource) List(ctx context.Context) ([]schedule.DosingSchedule, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schedules file: %w", err)
	}

	entries, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedules file %s: %w", s.path, err)
	}

	out := make([]schedule.DosingSchedule, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, m := range entries {
		sched, err := m.toSchedule()
		if err != nil {
			s.logger.WithError(err).Warnf("Skipping schedule #%d (%s)", i+1, m.Name)
			continue
		}
		if seen[sched.ID] {
			if m.explicitID() {
				s.logger.Warnf("Skipping schedule #%d (%s): duplicate id %q", i+1, m.Name, sched.ID)
				continue
			}
			base := sched.ID
			for n := 2; seen[sched.ID]; n++ {
				sched.ID = fmt.Sprintf("%s-%d", base, n)
			}
		}
		seen[sched.ID] = true
		out = append(out, sched)
	}
	return out, nil
}

// decode accepts a top-level list or a mapping with a "medicines" list.
func decode(data []byte) ([]medicine, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]

	var entries []medicine
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&entries); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var wrapped struct {
			Medicines []medicine `yaml:"medicines"`
		}
		if err := doc.Decode(&wrapped); err != nil {
			return nil, err
		}
		entries = wrapped.Medicines
	default:
		return nil, fmt.Errorf("line %d: expected a list of medicines", doc.Line)
	}
	return entries, nil
}

func (m medicine) explicitID() bool {
	return strings.TrimSpace(string(m.ID)) != ""
}

func (m medicine) toSchedule() (schedule.DosingSchedule, error) {
	if !m.explicitID() && strings.TrimSpace(m.Name) == "" {
		return schedule.DosingSchedule{}, fmt.Errorf("medicine has neither id nor name")
	}

	days, err := normalizeDays(m.Frequency, m.Days)
	if err != nil {
		return schedule.DosingSchedule{}, err
	}
	times := make([]string, 0, len(m.Times))
	for _, raw := range m.Times {
		t, err := time.Parse(schedule.TimeOfDayLayout, strings.TrimSpace(raw))
		if err != nil {
			return schedule.DosingSchedule{}, fmt.Errorf("invalid time %q: want HH:MM", raw)
		}
		times = append(times, t.Format(schedule.TimeOfDayLayout))
	}

	id := strings.TrimSpace(string(m.ID))
	if id == "" {
		id = derivedID(m.PatName, m.Name, m.Dosage, days, times)
	}

	return schedule.DosingSchedule{
		ID:           id,
		Name:         m.Name,
		Dosage:       m.Dosage,
		PatientName:  m.PatName,
		MealRelation: m.MealRelation,
		Days:         days,
		Times:        times,
	}, nil
}

// derivedID names an id-less entry after its content, so the id survives
// reordering the file and differs between patients taking the same medicine.
func derivedID(patient, name, dosage string, days, times []string) string {
	key := strings.Join([]string{
		patient, name, dosage, strings.Join(days, ","), strings.Join(times, ","),
	}, "\x1f")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func normalizeDays(frequency string, raw []string) ([]string, error) {
	if strings.EqualFold(strings.TrimSpace(frequency), everyday) {
		return allDays(), nil
	}

	seen := make(map[string]bool, len(raw))
	days := make([]string, 0, len(raw))
	for _, d := range raw {
		d = strings.TrimSpace(d)
		if strings.EqualFold(d, everyday) {
			return allDays(), nil
		}
		label, ok := weekdayLabel(d)
		if !ok {
			return nil, fmt.Errorf("unknown day %q", d)
		}
		if !seen[label] {
			seen[label] = true
			days = append(days, label)
		}
	}
	return days, nil
}

func weekdayLabel(d string) (string, bool) {
	for _, w := range schedule.Weekdays {
		if strings.EqualFold(d, w) {
			return w, true
		}
	}
	return "", false
}

func allDays() []string {
	return append([]string(nil), schedule.Weekdays[:]...)
}
