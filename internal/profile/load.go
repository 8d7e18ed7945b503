package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadError reports an unreadable or malformed profile definition.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load profile %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loaded is a parsed profile plus non-fatal warnings about its content.
type Loaded struct {
	Path     string
	Profile  Profile
	Warnings []string
}

// Load reads and parses the profile at path.
func Load(path string) (Loaded, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, &LoadError{Path: path, Err: err}
	}

	loaded, err := Parse(filepath.Base(path), content)
	if err != nil {
		return Loaded{}, &LoadError{Path: path, Err: err}
	}
	loaded.Path = path
	return loaded, nil
}

// Parse decodes profile content into a Profile, applying defaults for every
// absent optional key.
func Parse(name string, content []byte) (Loaded, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return Loaded{}, err
	}

	p := Profile{
		Name:            name,
		LogDirectory:    Resolve(DefaultLogDirectory),
		SoundsDirectory: Resolve(DefaultSoundsDirectory),
		Bindings:        map[int]string{},
	}
	var warnings []string

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		node := doc[key]
		if node.ShortTag() == "!!null" {
			continue
		}

		var err error
		switch key {
		case "log_dir":
			err = setPath(&node, key, &p.LogDirectory)
		case "sounds_dir":
			err = setPath(&node, key, &p.SoundsDirectory)
		case "startup_sound":
			p.StartupSound, err = scalarString(&node, key)
		case "shutdown_sound":
			p.ShutdownSound, err = scalarString(&node, key)
		case "switch_sound":
			p.SwitchSound, err = scalarString(&node, key)
		case "shutdown_button_pin":
			p.ShutdownPin, err = optionalPin(&node, key)
		case "switch_button_pin":
			p.SwitchPin, err = optionalPin(&node, key)
		case "buttons":
			p.Bindings, err = parseButtons(&node)
		default:
			warnings = append(warnings, fmt.Sprintf("line %d: unknown key %q ignored", node.Line, key))
		}
		if err != nil {
			return Loaded{}, err
		}
	}

	return Loaded{Profile: p, Warnings: warnings}, nil
}

func setPath(node *yaml.Node, key string, dst *string) error {
	raw, err := scalarString(node, key)
	if err != nil {
		return err
	}
	if raw != "" {
		*dst = Resolve(raw)
	}
	return nil
}

func scalarString(node *yaml.Node, key string) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: %s must be a string", node.Line, key)
	}
	return strings.TrimSpace(node.Value), nil
}

func optionalPin(node *yaml.Node, key string) (*int, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: %s must be an integer", node.Line, key)
	}
	pin, err := parsePin(node.Value)
	if err != nil {
		return nil, fmt.Errorf("line %d: %s: %w", node.Line, key, err)
	}
	return &pin, nil
}

func parsePin(raw string) (int, error) {
	pin, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid pin %q", raw)
	}
	if pin < 0 {
		return 0, fmt.Errorf("pin %d must not be negative", pin)
	}
	return pin, nil
}

func parseButtons(node *yaml.Node) (map[int]string, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: buttons must be a mapping of pin to animal", node.Line)
	}

	bindings := make(map[int]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		pin, err := parsePin(keyNode.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: buttons: %w", keyNode.Line, err)
		}
		if _, dup := bindings[pin]; dup {
			return nil, fmt.Errorf("line %d: buttons: pin %d bound twice", keyNode.Line, pin)
		}
		if valueNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: buttons: animal for pin %d must be a string", valueNode.Line, pin)
		}

		animal := strings.TrimSpace(valueNode.Value)
		if err := checkAnimalName(animal); err != nil {
			return nil, fmt.Errorf("line %d: buttons: pin %d: %w", valueNode.Line, pin, err)
		}
		bindings[pin] = animal
	}
	return bindings, nil
}

// checkAnimalName keeps names usable as a single directory under the sounds dir.
func checkAnimalName(animal string) error {
	switch {
	case animal == "":
		return fmt.Errorf("animal name must not be empty")
	case animal == "." || animal == "..":
		return fmt.Errorf("animal name %q is not a directory name", animal)
	case strings.ContainsRune(animal, '/') || strings.ContainsRune(animal, filepath.Separator):
		return fmt.Errorf("animal name %q must not contain a path separator", animal)
	}
	return nil
}
