package course

import (
	"encoding/json"
	"fmt"
	"os"

	id "pathway/pkg/domain"
)

// catalogFile is the on-disk catalog shape.
type catalogFile struct {
	Objectives []struct {
		ObjectiveID string   `json:"objectiveId"`
		Sections    []string `json:"sections"`
		Difficulty  string   `json:"difficulty"`
		CohortKey   string   `json:"cohortKey"`
	} `json:"objectives"`
}

// LoadFile reads a JSON catalog into in-memory definitions. Deployments that
// do not run a live catalog service load one of these at startup.
func LoadFile(path string) (*InMemoryDefinitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	defs := NewInMemoryDefinitions()
	for i, obj := range file.Objectives {
		objectiveID, err := id.ParseObjectiveID(obj.ObjectiveID)
		if err != nil {
			return nil, fmt.Errorf("catalog objective %d: %w", i, err)
		}
		cohortKey, err := id.ParseCohortKey(obj.CohortKey)
		if err != nil {
			return nil, fmt.Errorf("catalog objective %q: %w", obj.ObjectiveID, err)
		}
		difficulty, err := parseDifficulty(obj.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("catalog objective %q: %w", obj.ObjectiveID, err)
		}
		sections := make([]id.SectionID, 0, len(obj.Sections))
		for _, s := range obj.Sections {
			sectionID, err := id.ParseSectionID(s)
			if err != nil {
				return nil, fmt.Errorf("catalog objective %q: %w", obj.ObjectiveID, err)
			}
			sections = append(sections, sectionID)
		}
		defs.Put(ObjectiveDefinition{
			ObjectiveID: objectiveID,
			Sections:    sections,
			Difficulty:  difficulty,
			CohortKey:   cohortKey,
		})
	}
	return defs, nil
}

func parseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}
