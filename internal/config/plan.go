package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vitebski/seedgraph/internal/plan"
	"github.com/vitebski/seedgraph/internal/resolver"
)

// planFile is the YAML shape of a generation plan. Steps run as a pipe: each
// step sees the rows of the steps before it.
type planFile struct {
	Seed  string     `yaml:"seed"`
	Steps []planStep `yaml:"steps"`
}

type planStep struct {
	Table string    `yaml:"table"`
	Count int       `yaml:"count"`
	Min   int       `yaml:"min"`
	Max   int       `yaml:"max"`
	Rows  []planRow `yaml:"rows"`
}

type planRow struct {
	Data     map[string]interface{} `yaml:"data"`
	Children map[string]planStep    `yaml:"children"`
}

// LoadPlan parses a YAML plan file and builds an executable plan on the
// engine. Step-level specification errors surface when the plan runs, with
// the offending table in the error path.
func LoadPlan(engine *plan.Engine, path string) (*plan.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file %s: %w", path, err)
	}

	var file planFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing plan file %s: %w", path, err)
	}
	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("plan file %s defines no steps", path)
	}

	plans := make([]*plan.Plan, 0, len(file.Steps))
	for _, step := range file.Steps {
		spec, err := stepSpec(step)
		if err != nil {
			return nil, fmt.Errorf("plan file %s, table %s: %w", path, step.Table, err)
		}
		plans = append(plans, engine.Generate(step.Table, spec))
	}

	var opts *plan.ComposeOptions
	if file.Seed != "" {
		opts = &plan.ComposeOptions{Seed: file.Seed}
	}
	return plan.Pipe(plans, opts), nil
}

func stepSpec(step planStep) (plan.RequestSpec, error) {
	if len(step.Rows) > 0 {
		rows := make([]resolver.RowSpec, 0, len(step.Rows))
		for _, r := range step.Rows {
			spec, err := rowSpec(r)
			if err != nil {
				return plan.RequestSpec{}, err
			}
			rows = append(rows, spec)
		}
		return plan.Rows(rows...), nil
	}
	if step.Max > 0 {
		return plan.CountBetween(step.Min, step.Max), nil
	}
	return plan.Count(step.Count), nil
}

func rowSpec(row planRow) (resolver.RowSpec, error) {
	spec := resolver.RowSpec{}
	if len(row.Data) > 0 {
		spec.Fields = make(map[string]resolver.FieldValue, len(row.Data))
		for col, val := range row.Data {
			spec.Fields[col] = resolver.Value(val)
		}
	}
	for name, child := range row.Children {
		req, err := childRequest(child)
		if err != nil {
			return resolver.RowSpec{}, err
		}
		if spec.Children == nil {
			spec.Children = make(map[string]*resolver.Request)
		}
		spec.Children[name] = req
	}
	return spec, nil
}

func childRequest(step planStep) (*resolver.Request, error) {
	if len(step.Rows) > 0 {
		rows := make([]resolver.RowSpec, 0, len(step.Rows))
		for _, r := range step.Rows {
			spec, err := rowSpec(r)
			if err != nil {
				return nil, err
			}
			rows = append(rows, spec)
		}
		return resolver.NewRowsRequest(step.Table, rows...), nil
	}
	count := resolver.Exactly(step.Count)
	if step.Max > 0 {
		count = resolver.Between(step.Min, step.Max)
	}
	return resolver.NewRequest(step.Table, count), nil
}
