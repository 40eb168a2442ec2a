package scope

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChainMaterial changes the linear density of the chain.
type ChainMaterial string

const (
	Galvanized ChainMaterial = "galvanized"
	Stainless  ChainMaterial = "stainless"
)

// Vessel is the read-only description of the boat used to size the anchor chain.
type Vessel struct {
	LengthM          float64       `yaml:"length" json:"length"`
	DisplacementTons float64       `yaml:"displacement" json:"displacement"`
	FreeboardM       float64       `yaml:"freeboard" json:"freeboard"`
	WaterlineM       float64       `yaml:"waterline" json:"waterline"`
	ChainDiameterMm  float64       `yaml:"chainDiameter" json:"chainDiameter"`
	ChainMaterial    ChainMaterial `yaml:"chainMaterial" json:"chainMaterial"`

	// Formula toggles, both may be set
	Catenary bool `yaml:"catenary" json:"catenary"`
	WindLoa  bool `yaml:"windLoa" json:"windLoa"`
}

// DefaultVessel is a 10 m cruising sailboat on 8 mm galvanized chain.
func DefaultVessel() Vessel {
	return Vessel{
		LengthM:          10,
		DisplacementTons: 5,
		FreeboardM:       1,
		WaterlineM:       9,
		ChainDiameterMm:  8,
		ChainMaterial:    Galvanized,
		Catenary:         true,
		WindLoa:          true,
	}
}

// LoadVessel reads vessel parameters from a YAML file. Fields missing from
// the file keep their DefaultVessel value.
func LoadVessel(path string) (Vessel, error) {
	v := DefaultVessel()

	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("reading vessel file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parsing vessel file '%s': %w", path, err)
	}
	return v, nil
}
