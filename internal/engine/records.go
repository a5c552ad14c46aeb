package engine

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leapcollect/internal/store"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/field"
)

// snapshot is the stored form of one collection. It is what the cache
// holds, so cache hits and store loads assemble through the same path.
// Options and defaults stay JSON strings to keep numeric types stable.
type snapshot struct {
	Collection    store.CollectionRecord     `msgpack:"collection"`
	Fields        []store.FieldRecord        `msgpack:"fields"`
	Relationships []store.RelationshipRecord `msgpack:"relationships"`
}

func schemaJSON(c *collection.Collection) (string, error) {
	data, err := json.Marshal(c.Definition())
	if err != nil {
		return "", fmt.Errorf("failed to encode collection schema: %w", err)
	}
	return string(data), nil
}

func collectionRecord(c *collection.Collection) (store.CollectionRecord, error) {
	schema, err := schemaJSON(c)
	if err != nil {
		return store.CollectionRecord{}, err
	}
	return store.CollectionRecord{
		ID:          c.ID,
		Name:        c.Name,
		TableName:   c.TableName,
		Title:       c.Title,
		Description: c.Description,
		SchemaJSON:  schema,
		TenantID:    c.TenantID,
		SiteID:      c.SiteID,
	}, nil
}

func fieldRecord(collectionID int64, f field.Field, sort int) (store.FieldRecord, error) {
	d := f.Definition()
	rec := store.FieldRecord{
		CollectionID: collectionID,
		Name:         d.Name,
		Type:         string(d.Type),
		DBType:       d.DBType,
		Title:        d.Title,
		Nullable:     d.Nullable,
		Sort:         sort,
	}

	opts, err := json.Marshal(d.Options)
	if err != nil {
		return rec, fmt.Errorf("failed to encode options of field %s: %w", d.Name, err)
	}
	rec.OptionsJSON = string(opts)

	if d.Default != nil {
		def, err := json.Marshal(d.Default)
		if err != nil {
			return rec, fmt.Errorf("failed to encode default of field %s: %w", d.Name, err)
		}
		rec.DefaultJSON = string(def)
	}
	return rec, nil
}

func relationshipRecord(collectionID int64, r core.Relationship) (store.RelationshipRecord, error) {
	rec := store.RelationshipRecord{
		CollectionID:     collectionID,
		Name:             r.Name,
		Type:             string(r.Type),
		TargetCollection: r.TargetCollection,
		ForeignKey:       r.ForeignKey,
		LocalKey:         r.LocalKey,
		OptionsJSON:      "{}",
	}
	if len(r.Options) > 0 {
		opts, err := json.Marshal(r.Options)
		if err != nil {
			return rec, fmt.Errorf("failed to encode options of relationship %s: %w", r.Name, err)
		}
		rec.OptionsJSON = string(opts)
	}
	return rec, nil
}

// records flattens a collection. Child records carry c.ID, which is zero
// before the collection row is inserted.
func records(c *collection.Collection) (snapshot, error) {
	var s snapshot
	var err error

	if s.Collection, err = collectionRecord(c); err != nil {
		return s, err
	}
	for i, f := range c.Fields() {
		rec, err := fieldRecord(c.ID, f, i)
		if err != nil {
			return s, err
		}
		s.Fields = append(s.Fields, rec)
	}
	for _, r := range c.Relationships() {
		rec, err := relationshipRecord(c.ID, r)
		if err != nil {
			return s, err
		}
		s.Relationships = append(s.Relationships, rec)
	}
	return s, nil
}

// assemble rebuilds the aggregate. Fields are reconstructed through the
// registry so the derived column types always follow the current rules.
func assemble(reg *field.Registry, naming collection.Naming, s snapshot) (*collection.Collection, error) {
	d := collection.Definition{
		ID:          s.Collection.ID,
		Name:        s.Collection.Name,
		TableName:   s.Collection.TableName,
		Title:       s.Collection.Title,
		Description: s.Collection.Description,
		TenantID:    s.Collection.TenantID,
		SiteID:      s.Collection.SiteID,
	}

	for _, rec := range s.Fields {
		fd := field.Definition{
			Name:     rec.Name,
			Type:     field.Type(rec.Type),
			DBType:   rec.DBType,
			Title:    rec.Title,
			Nullable: rec.Nullable,
		}
		if err := decodeJSON(rec.OptionsJSON, &fd.Options); err != nil {
			return nil, fmt.Errorf("corrupt options for field %s.%s: %w", s.Collection.Name, rec.Name, err)
		}
		if rec.DefaultJSON != "" {
			if err := decodeJSON(rec.DefaultJSON, &fd.Default); err != nil {
				return nil, fmt.Errorf("corrupt default for field %s.%s: %w", s.Collection.Name, rec.Name, err)
			}
		}
		d.Fields = append(d.Fields, fd)
	}

	for _, rec := range s.Relationships {
		r := core.Relationship{
			Name:             rec.Name,
			Type:             core.RelationType(rec.Type),
			TargetCollection: rec.TargetCollection,
			ForeignKey:       rec.ForeignKey,
			LocalKey:         rec.LocalKey,
		}
		if err := decodeJSON(rec.OptionsJSON, &r.Options); err != nil {
			return nil, fmt.Errorf("corrupt options for relationship %s.%s: %w", s.Collection.Name, rec.Name, err)
		}
		if len(r.Options) == 0 {
			r.Options = nil
		}
		d.Relationships = append(d.Relationships, r)
	}

	return collection.FromDefinition(reg, d, naming)
}

func decodeJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
