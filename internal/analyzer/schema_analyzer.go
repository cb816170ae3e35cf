package analyzer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vitebski/seedgraph/internal/connector"
	"github.com/vitebski/seedgraph/pkg/models"
)

// SchemaAnalyzer introspects a live MySQL database and builds the relational
// schema the generation engine works against.
type SchemaAnalyzer struct {
	DB     *connector.DatabaseConnector
	Logger *logrus.Logger
}

// NewSchemaAnalyzer creates a new schema analyzer.
func NewSchemaAnalyzer(db *connector.DatabaseConnector, logger *logrus.Logger) *SchemaAnalyzer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SchemaAnalyzer{DB: db, Logger: logger}
}

// rawForeignKey is one row of key_column_usage. Multi-column constraints
// produce one row per column, in ordinal position order.
type rawForeignKey struct {
	constraint       string
	table            string
	column           string
	referencedTable  string
	referencedColumn string
}

// Analyze reads tables, columns and foreign keys from information_schema and
// assembles a validated schema. Views are ignored. Foreign key rows sharing a
// constraint name are grouped into one multi-column relationship.
func (sa *SchemaAnalyzer) Analyze() (*models.Schema, error) {
	tableNames, err := sa.fetchTables()
	if err != nil {
		return nil, err
	}
	sa.Logger.Infof("Found %d tables in database %s", len(tableNames), sa.DB.Database)

	tables := make([]*models.Table, 0, len(tableNames))
	byName := make(map[string]*models.Table, len(tableNames))
	for _, name := range tableNames {
		tbl, err := sa.fetchTable(name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
		byName[name] = tbl
	}

	fks, err := sa.fetchForeignKeys()
	if err != nil {
		return nil, err
	}

	// Group by constraint, preserving first-seen order. Constraint names
	// are unique per schema in InnoDB, so they double as relationship
	// names on both ends.
	var order []string
	grouped := make(map[string][]rawForeignKey)
	for _, fk := range fks {
		if _, seen := grouped[fk.constraint]; !seen {
			order = append(order, fk.constraint)
		}
		grouped[fk.constraint] = append(grouped[fk.constraint], fk)
	}

	for _, constraint := range order {
		group := grouped[constraint]
		owner, ok := byName[group[0].table]
		if !ok {
			continue
		}
		target, ok := byName[group[0].referencedTable]
		if !ok {
			sa.Logger.Warningf("Constraint %s references table %s outside schema %s, skipping",
				constraint, group[0].referencedTable, sa.DB.Database)
			continue
		}

		rel := models.Relation{Name: constraint, Target: target.Name, Nullable: true}
		for _, fk := range group {
			rel.Columns = append(rel.Columns, fk.column)
			rel.TargetColumns = append(rel.TargetColumns, fk.referencedColumn)
			col, found := owner.Column(fk.column)
			if !found {
				return nil, &models.SchemaError{Table: owner.Name, Detail: fmt.Sprintf("constraint %s names unknown column %s", constraint, fk.column)}
			}
			if !col.Nullable {
				rel.Nullable = false
			}
		}
		owner.Parents = append(owner.Parents, rel)
		target.Children = append(target.Children, models.ChildRelation{
			Name:           constraint,
			Target:         owner.Name,
			ParentRelation: constraint,
		})
	}

	schema, err := models.NewSchema(tables...)
	if err != nil {
		return nil, err
	}
	sa.Logger.Infof("Schema analysis complete: %d tables, %d foreign key constraints", len(tables), len(order))
	return schema, nil
}

func (sa *SchemaAnalyzer) fetchTables() ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	result, err := sa.DB.ExecuteQuery(query, sa.DB.Database)
	if err != nil {
		sa.Logger.Errorf("Error getting tables: %v", err)
		return nil, err
	}

	var names []string
	for _, row := range result {
		names = append(names, fmt.Sprintf("%v", row["table_name"]))
	}
	return names, nil
}

func (sa *SchemaAnalyzer) fetchTable(name string) (*models.Table, error) {
	query := `
		SELECT
			column_name,
			column_type,
			is_nullable,
			column_key,
			column_default,
			extra
		FROM information_schema.columns
		WHERE table_schema = ?
		AND table_name = ?
		ORDER BY ordinal_position
	`
	result, err := sa.DB.ExecuteQuery(query, sa.DB.Database, name)
	if err != nil {
		sa.Logger.Errorf("Error getting columns for table %s: %v", name, err)
		return nil, err
	}

	tbl := &models.Table{Name: name}
	for _, row := range result {
		col := models.Column{
			Name:     fmt.Sprintf("%v", row["column_name"]),
			Type:     fmt.Sprintf("%v", row["column_type"]),
			Nullable: fmt.Sprintf("%v", row["is_nullable"]) == "YES",
		}
		if row["column_default"] != nil || fmt.Sprintf("%v", row["extra"]) == "auto_increment" {
			col.HasDefault = true
		}
		tbl.Columns = append(tbl.Columns, col)
		if fmt.Sprintf("%v", row["column_key"]) == "PRI" {
			tbl.PrimaryKey = append(tbl.PrimaryKey, col.Name)
		}
	}
	return tbl, nil
}

func (sa *SchemaAnalyzer) fetchForeignKeys() ([]rawForeignKey, error) {
	query := `
		SELECT
			constraint_name,
			table_name,
			column_name,
			referenced_table_name,
			referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		AND referenced_table_name IS NOT NULL
		ORDER BY table_name, constraint_name, ordinal_position
	`
	result, err := sa.DB.ExecuteQuery(query, sa.DB.Database)
	if err != nil {
		sa.Logger.Errorf("Error getting foreign keys: %v", err)
		return nil, err
	}

	var fks []rawForeignKey
	for _, row := range result {
		fks = append(fks, rawForeignKey{
			constraint:       fmt.Sprintf("%v", row["constraint_name"]),
			table:            fmt.Sprintf("%v", row["table_name"]),
			column:           fmt.Sprintf("%v", row["column_name"]),
			referencedTable:  fmt.Sprintf("%v", row["referenced_table_name"]),
			referencedColumn: fmt.Sprintf("%v", row["referenced_column_name"]),
		})
	}
	return fks, nil
}
