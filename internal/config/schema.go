package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vitebski/seedgraph/pkg/models"
)

// schemaFile is the YAML shape of a schema definition, an offline alternative
// to live database introspection.
type schemaFile struct {
	Tables []schemaTable `yaml:"tables"`
}

type schemaTable struct {
	Name       string           `yaml:"name"`
	PrimaryKey []string         `yaml:"primary_key"`
	Columns    []schemaColumn   `yaml:"columns"`
	Relations  []schemaRelation `yaml:"relations"`
}

type schemaColumn struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Nullable   bool   `yaml:"nullable"`
	HasDefault bool   `yaml:"has_default"`
}

type schemaRelation struct {
	Name          string   `yaml:"name"`
	Target        string   `yaml:"target"`
	Columns       []string `yaml:"columns"`
	TargetColumns []string `yaml:"target_columns"`
	Nullable      bool     `yaml:"nullable"`
}

// LoadSchema parses a YAML schema file into a validated schema. Only parent
// relationships are declared in the file; the matching child edges are
// synthesized, mirroring what database introspection produces.
func LoadSchema(path string) (*models.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %s: %w", path, err)
	}

	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing schema file %s: %w", path, err)
	}
	if len(file.Tables) == 0 {
		return nil, fmt.Errorf("schema file %s defines no tables", path)
	}

	tables := make([]*models.Table, 0, len(file.Tables))
	byName := make(map[string]*models.Table, len(file.Tables))
	for _, t := range file.Tables {
		tbl := &models.Table{Name: t.Name, PrimaryKey: t.PrimaryKey}
		for _, c := range t.Columns {
			tbl.Columns = append(tbl.Columns, models.Column{
				Name:       c.Name,
				Type:       c.Type,
				Nullable:   c.Nullable,
				HasDefault: c.HasDefault,
			})
		}
		tables = append(tables, tbl)
		byName[t.Name] = tbl
	}

	for _, t := range file.Tables {
		owner := byName[t.Name]
		for _, r := range t.Relations {
			name := r.Name
			if name == "" {
				name = fmt.Sprintf("%s_%s", t.Name, r.Target)
			}
			owner.Parents = append(owner.Parents, models.Relation{
				Name:          name,
				Target:        r.Target,
				Columns:       r.Columns,
				TargetColumns: r.TargetColumns,
				Nullable:      r.Nullable,
			})
			target, ok := byName[r.Target]
			if !ok {
				return nil, fmt.Errorf("schema file %s: relation %s on table %s targets unknown table %s", path, name, t.Name, r.Target)
			}
			target.Children = append(target.Children, models.ChildRelation{
				Name:           name,
				Target:         t.Name,
				ParentRelation: name,
			})
		}
	}

	return models.NewSchema(tables...)
}
