package collection

import (
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/field"
)

// Definition is the serializable form of a Collection, used for YAML
// definition files, JSON output and the schema snapshot kept in the store.
type Definition struct {
	ID            int64               `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string              `json:"name" yaml:"name"`
	TableName     string              `json:"table_name,omitempty" yaml:"table_name,omitempty"`
	Title         string              `json:"title,omitempty" yaml:"title,omitempty"`
	Description   string              `json:"description,omitempty" yaml:"description,omitempty"`
	TenantID      int64               `json:"tenant_id" yaml:"tenant_id,omitempty"`
	SiteID        int64               `json:"site_id" yaml:"site_id,omitempty"`
	Fields        []field.Definition  `json:"fields" yaml:"fields"`
	Relationships []core.Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// Definition returns the serializable form of the collection.
func (c *Collection) Definition() Definition {
	d := Definition{
		ID:            c.ID,
		Name:          c.Name,
		TableName:     c.TableName,
		Title:         c.Title,
		Description:   c.Description,
		TenantID:      c.TenantID,
		SiteID:        c.SiteID,
		Fields:        make([]field.Definition, 0, len(c.fields)),
		Relationships: c.Relationships(),
	}
	for _, f := range c.fields {
		d.Fields = append(d.Fields, f.Definition())
	}
	return d
}

// FromDefinition builds a collection. A blank table name is derived from the
// collection name and a blank title from the name.
func FromDefinition(reg *field.Registry, d Definition, naming Naming) (*Collection, error) {
	c := New(d.Name, naming)
	c.ID = d.ID
	c.Description = d.Description
	c.TenantID = d.TenantID
	c.SiteID = d.SiteID
	if d.TableName != "" {
		c.TableName = d.TableName
	}
	if d.Title != "" {
		c.Title = d.Title
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	for _, fd := range d.Fields {
		f, err := reg.FromDefinition(fd)
		if err != nil {
			return nil, err
		}
		if err := c.AddField(f); err != nil {
			return nil, err
		}
	}
	for _, r := range d.Relationships {
		rt, err := core.ParseRelationType(string(r.Type))
		if err != nil {
			return nil, err
		}
		r.Type = rt
		if err := c.AddRelationship(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}
