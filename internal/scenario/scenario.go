package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is the data the simulated agents draw their payloads from
type Scenario struct {
	AlertPrefix string     `yaml:"alert_prefix"`
	Child       Child      `yaml:"child"`
	Vehicle     Vehicle    `yaml:"vehicle"`
	Location    Location   `yaml:"location"`
	Assessment  Assessment `yaml:"assessment"`
	Channels    []string   `yaml:"channels"`
	Zones       []string   `yaml:"zones"`
	Cameras     int        `yaml:"cameras"`
	Tip         Tip        `yaml:"tip"`
	Detection   Detection  `yaml:"detection"`
	Resolution  Resolution `yaml:"resolution"`
	Failure     Failure    `yaml:"failure"`
}

type Child struct {
	Name string `yaml:"name"`
	Age  int    `yaml:"age"`
}

type Vehicle struct {
	Make  string `yaml:"make"`
	Model string `yaml:"model"`
	Color string `yaml:"color"`
	Plate string `yaml:"plate"`
}

// Describe renders the vehicle the way alerts print it
func (v Vehicle) Describe() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{v.Color, v.Make, v.Model} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	desc := strings.Join(parts, " ")
	if v.Plate != "" {
		if desc == "" {
			return v.Plate
		}
		desc += " (" + v.Plate + ")"
	}
	return desc
}

type Location struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

type Assessment struct {
	Priority string `yaml:"priority"`
	Urgency  string `yaml:"urgency"`
}

type Tip struct {
	Confidence float64 `yaml:"confidence"`
	Location   string  `yaml:"location"`
}

type Detection struct {
	Zone       string  `yaml:"zone"`
	Confidence float64 `yaml:"confidence"`
}

type Resolution struct {
	Type          string `yaml:"type"`
	ChildStatus   string `yaml:"child_status"`
	SuspectStatus string `yaml:"suspect_status"`
	Location      string `yaml:"location"`
}

type Failure struct {
	Reason string `yaml:"reason"`
}

// Default returns the built-in scenario
func Default() *Scenario {
	return &Scenario{
		AlertPrefix: "AMBER-CA-2026",
		Child:       Child{Name: "Emma Rodriguez", Age: 8},
		Vehicle: Vehicle{
			Make:  "Honda",
			Model: "Civic",
			Color: "Blue",
			Plate: "7ABC123",
		},
		Location: Location{
			Name: "Los Angeles, CA",
			Lat:  34.0522,
			Lon:  -118.2437,
		},
		Assessment: Assessment{Priority: "CRITICAL", Urgency: "immediate"},
		Channels:   []string{"SMS", "Highway Signs", "Radio", "Social Media", "Mobile Apps"},
		Zones:      []string{"Downtown LA", "Hollywood", "Santa Monica", "Pasadena"},
		Cameras:    247,
		Tip:        Tip{Confidence: 0.87, Location: "Santa Monica Pier parking lot"},
		Detection:  Detection{Zone: "Santa Monica", Confidence: 0.94},
		Resolution: Resolution{
			Type:          "child_recovered",
			ChildStatus:   "safe",
			SuspectStatus: "in_custody",
			Location:      "Santa Monica, CA",
		},
		Failure: Failure{Reason: "Simulated failure"},
	}
}

// Load reads a scenario file. Fields missing from the file keep their
// built-in values.
func Load(path string) (*Scenario, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the fields every agent relies on
func (s *Scenario) Validate() error {
	if s.Child.Name == "" {
		return fmt.Errorf("child name is required")
	}
	if len(s.Channels) == 0 {
		return fmt.Errorf("at least one broadcast channel is required")
	}
	if len(s.Zones) == 0 {
		return fmt.Errorf("at least one geofence zone is required")
	}
	if s.Tip.Confidence < 0 || s.Tip.Confidence > 1 {
		return fmt.Errorf("tip confidence must be between 0 and 1")
	}
	if s.Detection.Confidence < 0 || s.Detection.Confidence > 1 {
		return fmt.Errorf("detection confidence must be between 0 and 1")
	}
	return nil
}
