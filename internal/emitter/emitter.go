package emitter

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourbasic/graph"

	"github.com/vitebski/seedgraph/internal/store"
	"github.com/vitebski/seedgraph/pkg/models"
)

// Client executes one statement against a live backend. The engine issues
// statements in dependency order and surfaces a failure verbatim, tagged
// with the offending statement.
type Client interface {
	Query(statement string) error
}

// Emitter walks a final store in dependency order and produces ordered
// insert statements.
type Emitter struct {
	schema *models.Schema
	logger *logrus.Logger
}

// New creates an emitter for the given schema.
func New(schema *models.Schema, logger *logrus.Logger) *Emitter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Emitter{schema: schema, logger: logger}
}

// TableOrder computes a topological order over the store's tables by their
// parent relationships: a table appears only after every table it
// references. Self-relations are ignored; any other cycle is an
// OrderingError.
func (e *Emitter) TableOrder(st *store.Store) ([]string, error) {
	names := st.Tables()
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	g := graph.New(len(names))
	for _, name := range names {
		tbl, err := e.schema.Table(name)
		if err != nil {
			return nil, err
		}
		for _, rel := range tbl.Parents {
			if rel.Target == name {
				continue
			}
			if pi, ok := index[rel.Target]; ok {
				g.Add(pi, index[name])
			}
		}
	}

	order, ok := graph.TopSort(g)
	if !ok {
		return nil, &OrderingError{Tables: cycleTables(g, names)}
	}

	out := make([]string, 0, len(order))
	for _, i := range order {
		out = append(out, names[i])
	}
	return out, nil
}

// cycleTables names the tables of the first strongly connected component
// with more than one member.
func cycleTables(g *graph.Mutable, names []string) []string {
	for _, comp := range graph.StrongComponents(g) {
		if len(comp) > 1 {
			out := make([]string, 0, len(comp))
			for _, i := range comp {
				out = append(out, names[i])
			}
			return out
		}
	}
	return names
}

// ToSQL emits one insert statement per non-external row, tables in
// dependency order, columns in schema declaration order.
func (e *Emitter) ToSQL(st *store.Store) ([]string, error) {
	order, err := e.TableOrder(st)
	if err != nil {
		return nil, err
	}

	var statements []string
	for _, name := range order {
		tbl, err := e.schema.Table(name)
		if err != nil {
			return nil, err
		}

		columns := make([]string, 0, len(tbl.Columns))
		for _, c := range tbl.Columns {
			columns = append(columns, c.Name)
		}

		for i, row := range st.Rows(name) {
			if st.IsExternal(name, i) {
				continue
			}
			values := make([]string, 0, len(columns))
			for _, c := range columns {
				values = append(values, formatValue(row[c]))
			}
			statements = append(statements, fmt.Sprintf(
				"INSERT INTO %s (%s) VALUES (%s)",
				name,
				strings.Join(columns, ", "),
				strings.Join(values, ", "),
			))
		}
	}

	e.logger.Debugf("emitted %d statements for %d tables", len(statements), len(order))
	return statements, nil
}

// Execute runs the store's statements through the client in order. The
// engine defines no retry policy; on failure the in-memory store remains
// valid and emission can be retried by the caller.
func (e *Emitter) Execute(client Client, st *store.Store) error {
	statements, err := e.ToSQL(st)
	if err != nil {
		return err
	}
	for i, stmt := range statements {
		if err := client.Query(stmt); err != nil {
			return &PersistenceError{Index: i, Statement: stmt, Err: err}
		}
	}
	e.logger.Infof("executed %d statements", len(statements))
	return nil
}

// formatValue renders a scalar for SQL insertion.
func formatValue(val interface{}) string {
	if val == nil {
		return "NULL"
	}
	switch v := val.(type) {
	case string:
		escaped := strings.ReplaceAll(v, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "'", "''")
		return fmt.Sprintf("'%s'", escaped)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", v)
	case time.Time:
		return fmt.Sprintf("'%s'", v.Format("2006-01-02 15:04:05"))
	case []byte:
		return fmt.Sprintf("0x%x", v)
	default:
		escaped := strings.ReplaceAll(fmt.Sprintf("%v", v), "'", "''")
		return fmt.Sprintf("'%s'", escaped)
	}
}
