package data

import (
	"strconv"
	"strings"
	"time"
)

const maxSequence = 999999999999999

// Generator produces row ids. Each Dataset owns one generator so independent
// datasets in the same process never interfere.
type Generator struct {
	prefix string
	seq    int64
}

func NewGenerator() *Generator {
	return &Generator{prefix: newPrefix()}
}

// NewGeneratorWithPrefix fixes the surrogate prefix, for deterministic ids in
// tests.
func NewGeneratorWithPrefix(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

func newPrefix() string {
	return strconv.FormatInt(time.Now().UnixNano()/int64(time.Millisecond), 10)
}

// Next returns a fresh surrogate id. The sequence wraps and the prefix is
// refreshed past maxSequence so the counter cannot overflow.
func (g *Generator) Next() string {
	g.seq += 1
	if g.seq > maxSequence {
		g.prefix = newPrefix()
		g.seq = 1
	}
	return g.prefix + "-" + strconv.FormatInt(g.seq, 10)
}

// Assign resolves the id for a row: the declared key value when the schema
// names key fields, a generated surrogate otherwise. Key-derived ids are
// reproducible for the same key values, which makes duplicate detection work
// across merges.
func (g *Generator) Assign(fields map[string]interface{}, keyFields []string) (string, error) {
	if len(keyFields) == 0 {
		return g.Next(), nil
	}

	parts := make([]string, 0, len(keyFields))
	for _, k := range keyFields {
		v, ok := fields[k]
		if !ok || v == nil {
			return "", NewSchemaError("key field is missing on row: %s", k)
		}
		s := formatValue(v)
		if s == "" {
			return "", NewSchemaError("key field is empty on row: %s", k)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "-"), nil
}
