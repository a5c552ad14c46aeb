// Package collection holds the Collection aggregate: a tenant-scoped data model
// with an ordered set of typed fields and named relationships to other collections.
package collection

import (
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/field"
)

// Collection is a runtime-declared data model backed by one physical table.
// Fields keep their insertion order; names are unique within a collection.
type Collection struct {
	ID          int64
	Name        string
	TableName   string
	Title       string
	Description string
	TenantID    int64 // 0 is the system template tenant
	SiteID      int64

	fields        []field.Field
	fieldIndex    map[string]int
	relationships []core.Relationship
	relIndex      map[string]int
}

// New creates an empty collection whose table name and title are derived from name.
func New(name string, naming Naming) *Collection {
	return &Collection{
		Name:      name,
		TableName: naming.TableName(name),
		Title:     field.DefaultTitle(name),
	}
}

// Validate checks the collection and table names are usable identifiers.
func (c *Collection) Validate() error {
	if err := core.ValidateIdentifier("collection", c.Name); err != nil {
		return err
	}
	return core.ValidateIdentifier("table", c.TableName)
}

// Fields returns the fields in insertion order.
func (c *Collection) Fields() []field.Field {
	out := make([]field.Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Field returns the named field.
func (c *Collection) Field(name string) (field.Field, bool) {
	i, ok := c.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return c.fields[i], true
}

// HasField reports whether the collection has the named field.
func (c *Collection) HasField(name string) bool {
	_, ok := c.fieldIndex[name]
	return ok
}

// Position returns the zero-based order of the named field, or -1.
func (c *Collection) Position(name string) int {
	if i, ok := c.fieldIndex[name]; ok {
		return i
	}
	return -1
}

// AddField appends a field. Names must be unique and must not shadow a system column.
func (c *Collection) AddField(f field.Field) error {
	if c.HasField(f.Name()) {
		return &core.MetadataConflictError{Kind: "field", Name: f.Name(), Reason: "already defined on collection " + c.Name}
	}
	if IsSystemColumn(f.Name()) {
		return &core.DefinitionError{Kind: "field", Name: f.Name(), Reason: "reserved system column"}
	}
	if c.fieldIndex == nil {
		c.fieldIndex = make(map[string]int)
	}
	c.fieldIndex[f.Name()] = len(c.fields)
	c.fields = append(c.fields, f)
	return nil
}

// ReplaceField swaps the named field in place, keeping its position.
func (c *Collection) ReplaceField(f field.Field) error {
	i, ok := c.fieldIndex[f.Name()]
	if !ok {
		return core.NewNotFoundError("field", f.Name())
	}
	c.fields[i] = f
	return nil
}

// RemoveField drops the named field.
func (c *Collection) RemoveField(name string) error {
	i, ok := c.fieldIndex[name]
	if !ok {
		return core.NewNotFoundError("field", name)
	}
	c.fields = append(c.fields[:i], c.fields[i+1:]...)
	c.reindexFields()
	return nil
}

// SetFields replaces every field.
func (c *Collection) SetFields(fields []field.Field) error {
	c.fields = nil
	c.fieldIndex = nil
	for _, f := range fields {
		if err := c.AddField(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection) reindexFields() {
	c.fieldIndex = make(map[string]int, len(c.fields))
	for i, f := range c.fields {
		c.fieldIndex[f.Name()] = i
	}
}

// Relationships returns the relationships in insertion order.
func (c *Collection) Relationships() []core.Relationship {
	out := make([]core.Relationship, len(c.relationships))
	for i, r := range c.relationships {
		out[i] = r.Clone()
	}
	return out
}

// Relationship returns the named relationship.
func (c *Collection) Relationship(name string) (core.Relationship, bool) {
	i, ok := c.relIndex[name]
	if !ok {
		return core.Relationship{}, false
	}
	return c.relationships[i].Clone(), true
}

// AddRelationship appends a relationship. Names must be unique.
func (c *Collection) AddRelationship(r core.Relationship) error {
	if err := core.ValidateIdentifier("relationship", r.Name); err != nil {
		return err
	}
	if _, ok := c.relIndex[r.Name]; ok {
		return &core.MetadataConflictError{Kind: "relationship", Name: r.Name, Reason: "already defined on collection " + c.Name}
	}
	if c.relIndex == nil {
		c.relIndex = make(map[string]int)
	}
	c.relIndex[r.Name] = len(c.relationships)
	c.relationships = append(c.relationships, r.Clone())
	return nil
}

// RemoveRelationship drops the named relationship.
func (c *Collection) RemoveRelationship(name string) error {
	i, ok := c.relIndex[name]
	if !ok {
		return core.NewNotFoundError("relationship", name)
	}
	c.relationships = append(c.relationships[:i], c.relationships[i+1:]...)
	c.relIndex = make(map[string]int, len(c.relationships))
	for j, r := range c.relationships {
		c.relIndex[r.Name] = j
	}
	return nil
}

// SetRelationships replaces every relationship.
func (c *Collection) SetRelationships(rels []core.Relationship) error {
	c.relationships = nil
	c.relIndex = nil
	for _, r := range rels {
		if err := c.AddRelationship(r); err != nil {
			return err
		}
	}
	return nil
}
