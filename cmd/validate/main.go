package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/khlee2637/storyforge/pkg/story"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <story.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &StoryValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Story file is valid!")
}

type StoryValidator struct {
	errors []string
}

func (v *StoryValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var s story.Story
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&s); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateStory(&s)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *StoryValidator) validateStory(s *story.Story) {
	if strings.TrimSpace(s.Title) == "" {
		v.errors = append(v.errors, "  - story title is required")
	}

	if err := s.Graph.Validate(); err != nil {
		var integrity *story.IntegrityError
		if errors.As(err, &integrity) {
			for _, problem := range integrity.Problems {
				v.errors = append(v.errors, "  - "+problem)
			}
		} else {
			v.errors = append(v.errors, "  - "+err.Error())
		}
	}

	// Stat configs referenced by edges should exist; a typo here means
	// the effect silently tracks an unconfigured stat.
	configured := make(map[string]bool, len(s.Stats))
	for _, c := range s.Stats {
		if strings.TrimSpace(c.Name) == "" {
			v.errors = append(v.errors, "  - stat config with empty name")
			continue
		}
		if configured[c.Name] {
			v.errors = append(v.errors, fmt.Sprintf("  - duplicate stat config %q", c.Name))
		}
		configured[c.Name] = true
	}
	if len(configured) > 0 {
		for _, e := range s.Graph.Edges {
			for name := range e.StatEffects {
				if !configured[name] {
					v.errors = append(v.errors, fmt.Sprintf("  - edge %q affects unconfigured stat %q", e.ID, name))
				}
			}
		}
	}
}
