package strategies

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedDefinition is one strategy an operator wants present at startup,
// expressed the way a human edits config: YAML, not the API's JSON body.
type SeedDefinition struct {
	ChainID int                    `yaml:"chainId"`
	Name    string                 `yaml:"name"`
	Version int                    `yaml:"version"`
	Hash    string                 `yaml:"hash"`
	Params  map[string]interface{} `yaml:"params,omitempty"`
	Active  bool                   `yaml:"active"`
}

// SeedFile is the top-level shape of the optional seed overlay.
type SeedFile struct {
	Strategies []SeedDefinition `yaml:"strategies"`
}

// LoadSeedFile parses a YAML strategy-seed overlay. A missing path is not
// an error: most deployments configure strategies purely through the
// admin API and never supply one.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &SeedFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading strategy seed file %s: %w", path, err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing strategy seed file %s: %w", path, err)
	}
	return &file, nil
}

// ApplySeed creates every strategy in the overlay that doesn't already
// exist for its chain (matched by name+version), activating the ones
// marked active. It is safe to call on every startup.
func (s *Store) ApplySeed(file *SeedFile) error {
	for _, def := range file.Strategies {
		existing, err := s.List(def.ChainID)
		if err != nil {
			return err
		}

		var found *Strategy
		for i := range existing {
			if existing[i].Name == def.Name && existing[i].Version == def.Version {
				found = &existing[i]
				break
			}
		}

		if found == nil {
			params, err := json.Marshal(def.Params)
			if err != nil {
				return fmt.Errorf("encoding params for seed strategy %s: %w", def.Name, err)
			}
			created, err := s.Create(CreateInput{
				ChainID: def.ChainID,
				Name:    def.Name,
				Version: def.Version,
				Params:  params,
				Hash:    def.Hash,
			})
			if err != nil {
				return err
			}
			found = created
		}

		if def.Active {
			if err := s.SetActive(def.ChainID, found.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
