package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/vitebski/seedgraph/pkg/models"
)

// anchor pins temporal values so that generated datasets are byte-identical
// across executions with the same root seed.
var anchor = time.Date(2021, time.March, 14, 9, 26, 53, 0, time.UTC)

// Scalar produces a deterministic value for a column, keyed by this stream's
// seed path. Well-known column names get shaped data; otherwise the column
// type decides.
func (s *Stream) Scalar(column models.Column) interface{} {
	name := strings.ToLower(column.Name)
	typ := baseType(column.Type)

	if v, ok := s.byName(name, typ); ok {
		return v
	}
	return s.byType(column, typ)
}

// baseType strips length/precision suffixes, e.g. varchar(255) -> varchar.
func baseType(columnType string) string {
	typ := strings.ToLower(columnType)
	if idx := strings.Index(typ, "("); idx > 0 {
		typ = typ[:idx]
	}
	return strings.TrimSpace(typ)
}

func isTextual(typ string) bool {
	switch typ {
	case "varchar", "char", "text", "tinytext", "mediumtext", "longtext", "string", "uuid":
		return true
	}
	return false
}

// uuid draws a v4 uuid from the stream's seeded source. The faker library's
// UUID type reads crypto/rand, which would break reproducibility.
func (s *Stream) uuid() string {
	var b [16]byte
	for i := range b {
		b[i] = byte(s.rng.Intn(256))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// byName handles special column names the way real seed data looks.
func (s *Stream) byName(name, typ string) (interface{}, bool) {
	switch {
	case typ == "uuid":
		return s.uuid(), true
	case name == "id" || strings.HasSuffix(name, "_id"):
		if isTextual(typ) {
			return s.uuid(), true
		}
		return nil, false
	case strings.Contains(name, "email"):
		return s.fake.Internet().Email(), true
	case strings.Contains(name, "first") && strings.Contains(name, "name"):
		return s.fake.Person().FirstName(), true
	case strings.Contains(name, "last") && strings.Contains(name, "name"):
		return s.fake.Person().LastName(), true
	case strings.Contains(name, "user") && strings.Contains(name, "name"):
		return s.fake.Internet().User(), true
	case strings.Contains(name, "company") || strings.Contains(name, "business"):
		return s.fake.Company().Name(), true
	case strings.Contains(name, "name") && !strings.Contains(name, "file"):
		return s.fake.Person().Name(), true
	case strings.Contains(name, "phone"):
		return s.fake.Phone().Number(), true
	case strings.Contains(name, "address"):
		return s.fake.Address().Address(), true
	case strings.Contains(name, "city"):
		return s.fake.Address().City(), true
	case strings.Contains(name, "country"):
		return s.fake.Address().Country(), true
	case strings.Contains(name, "zip") || strings.Contains(name, "postal"):
		return s.fake.Address().PostCode(), true
	case strings.Contains(name, "description") || strings.Contains(name, "summary") || strings.Contains(name, "body"):
		return s.fake.Lorem().Paragraph(2), true
	case strings.Contains(name, "title") || strings.Contains(name, "subject"):
		return s.fake.Lorem().Sentence(4), true
	case strings.Contains(name, "url") || strings.Contains(name, "website"):
		return s.fake.Internet().URL(), true
	case strings.Contains(name, "token"):
		return s.fake.RandomStringWithLength(32), true
	case strings.Contains(name, "color"):
		return s.fake.Color().Hex(), true
	case strings.Contains(name, "created_at") || strings.Contains(name, "updated_at"):
		return anchor.Add(-time.Duration(s.rng.Intn(30*24)) * time.Hour), true
	}
	return nil, false
}

// byType generates a value from the column type alone.
func (s *Stream) byType(column models.Column, typ string) interface{} {
	switch typ {
	case "varchar", "char", "text", "tinytext", "mediumtext", "longtext", "string":
		return s.text(column)
	case "int", "integer", "tinyint", "smallint", "mediumint", "bigint", "serial", "bigserial":
		return s.rng.Intn(1000000) + 1
	case "float", "double", "decimal", "numeric", "real":
		return float64(s.rng.Intn(1000000)) / 100
	case "bool", "boolean":
		return s.rng.Intn(2) == 1
	case "date":
		return anchor.AddDate(0, 0, -s.rng.Intn(365*5)).Format("2006-01-02")
	case "time":
		return fmt.Sprintf("%02d:%02d:%02d", s.rng.Intn(24), s.rng.Intn(60), s.rng.Intn(60))
	case "datetime", "timestamp", "timestamptz":
		return anchor.Add(-time.Duration(s.rng.Intn(365*5*24)) * time.Hour)
	case "year":
		return 1970 + s.rng.Intn(anchor.Year()-1970+1)
	case "uuid":
		return s.uuid()
	case "json", "jsonb":
		return fmt.Sprintf(`{"key": %q}`, s.fake.Lorem().Word())
	default:
		return s.fake.Lorem().Word()
	}
}

func (s *Stream) text(column models.Column) string {
	typ := baseType(column.Type)
	switch typ {
	case "char":
		return s.fake.RandomStringWithLength(4)
	case "varchar", "string":
		return s.fake.Lorem().Sentence(3)
	default:
		return s.fake.Lorem().Paragraph(1)
	}
}
