package house

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlHouseFile is the top-level YAML structure for house files.
type yamlHouseFile struct {
	House yamlHouse `yaml:"house"`
}

// yamlHouse is the YAML representation of a house.
type yamlHouse struct {
	Name      string     `yaml:"name"`
	StartRoom string     `yaml:"start_room"`
	Ambient   string     `yaml:"ambient"`
	Rooms     []yamlRoom `yaml:"rooms"`
}

// yamlRoom is the YAML representation of a room.
type yamlRoom struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Exits       []string `yaml:"exits"`
	Effect      string   `yaml:"effect"`
}

// House is a loaded house file: its catalog plus the metadata presenters show.
type House struct {
	// Name is the title shown in banners.
	Name string
	// StartRoom is the room a new explorer enters first.
	StartRoom string
	// Ambient is an optional asset reference for looping background audio.
	Ambient string
	// Catalog holds the validated rooms.
	Catalog *Catalog
}

// LoadHouseFromFile reads and validates a house YAML file.
//
// Precondition: path must point to a YAML house file.
// Postcondition: Returns a validated House or a non-nil error.
func LoadHouseFromFile(path string) (*House, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading house file %s: %w", path, err)
	}
	return LoadHouseFromBytes(data)
}

// LoadHouseFromBytes parses and validates a house from YAML bytes.
//
// Precondition: data must be YAML conforming to the house schema.
// Postcondition: Returns a validated House or a non-nil error. Definition
// defects wrap ErrConfiguration.
func LoadHouseFromBytes(data []byte) (*House, error) {
	var file yamlHouseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing house YAML: %w", err)
	}

	defs, err := convertYAMLRooms(file.House.Rooms)
	if err != nil {
		return nil, fmt.Errorf("validating house: %w", err)
	}

	catalog, err := Load(defs)
	if err != nil {
		return nil, fmt.Errorf("validating house: %w", err)
	}

	h := &House{
		Name:      strings.TrimSpace(file.House.Name),
		StartRoom: strings.TrimSpace(file.House.StartRoom),
		Ambient:   file.House.Ambient,
		Catalog:   catalog,
	}
	if h.StartRoom == "" {
		return nil, fmt.Errorf("validating house: %w: start_room must not be empty", ErrConfiguration)
	}
	if _, err := catalog.Find(h.StartRoom); err != nil {
		return nil, fmt.Errorf("validating house: %w: start_room %q not found in rooms", ErrConfiguration, h.StartRoom)
	}
	return h, nil
}

// convertYAMLRooms converts parsed YAML rooms into definitions, collecting
// every unknown effect name.
func convertYAMLRooms(rooms []yamlRoom) ([]Definition, error) {
	defs := make([]Definition, 0, len(rooms))
	var errs []error
	for _, yr := range rooms {
		effect, err := ParseEffectKind(yr.Effect)
		if err != nil {
			errs = append(errs, fmt.Errorf("room %q: %w", yr.Name, err))
		}
		defs = append(defs, Definition{
			Name:        strings.TrimSpace(yr.Name),
			Description: strings.TrimSpace(yr.Description),
			ImageRef:    yr.Image,
			Exits:       yr.Exits,
			Effect:      effect,
		})
	}
	return defs, errors.Join(errs...)
}
