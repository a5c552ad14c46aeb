package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leapcollect/internal/cli/output"
	"github.com/leapstack-labs/leapcollect/internal/drift"
	"github.com/leapstack-labs/leapcollect/internal/loader"
	"github.com/leapstack-labs/leapcollect/internal/store"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
)

type collectionSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	TableName string    `json:"table_name"`
	Title     string    `json:"title"`
	TenantID  int64     `json:"tenant_id"`
	SiteID    int64     `json:"site_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type collectionPage struct {
	Items    []collectionSummary `json:"items"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

func renderCollectionList(r *output.Renderer, res *store.ListResult) error {
	page := collectionPage{Items: []collectionSummary{}, Total: res.Total, Page: res.Page, PageSize: res.PageSize}
	for _, rec := range res.Items {
		page.Items = append(page.Items, collectionSummary{
			ID:        rec.ID,
			Name:      rec.Name,
			TableName: rec.TableName,
			Title:     rec.Title,
			TenantID:  rec.TenantID,
			SiteID:    rec.SiteID,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(page)
	}

	r.Header(1, "Collections")
	if len(page.Items) == 0 {
		r.Muted("No collections found.")
		return nil
	}
	rows := make([][]string, 0, len(page.Items))
	for _, s := range page.Items {
		rows = append(rows, []string{s.Name, s.TableName, s.Title, fmt.Sprint(s.SiteID), s.UpdatedAt.Format(time.RFC3339)})
	}
	r.Table([]string{"Name", "Table", "Title", "Site", "Updated"}, rows)
	r.Muted(fmt.Sprintf("Page %d, %d of %d collections", page.Page, len(page.Items), page.Total))
	return nil
}

func renderCollection(r *output.Renderer, c *collection.Collection) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(c.Definition())
	}

	r.Header(1, c.Title)
	r.KeyValue("Name", c.Name)
	r.KeyValue("Table", c.TableName)
	r.KeyValue("Tenant", fmt.Sprint(c.TenantID))
	r.KeyValue("Site", fmt.Sprint(c.SiteID))
	if c.Description != "" {
		r.KeyValue("Description", c.Description)
	}
	r.Println()

	r.Header(2, "Fields")
	fields := c.Fields()
	if len(fields) == 0 {
		r.Muted("No fields.")
	} else {
		rows := make([][]string, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, []string{f.Name(), string(f.Type()), f.DBType(), yesNo(f.Nullable()), formatValue(f.Default())})
		}
		r.Table([]string{"Name", "Type", "Column Type", "Nullable", "Default"}, rows)
	}

	rels := c.Relationships()
	if len(rels) == 0 {
		return nil
	}
	r.Println()
	r.Header(2, "Relationships")
	rows := make([][]string, 0, len(rels))
	for _, rel := range rels {
		rows = append(rows, []string{rel.Name, string(rel.Type), rel.TargetCollection, rel.ForeignKey, rel.LocalKey, rel.PivotTable()})
	}
	r.Table([]string{"Name", "Type", "Target", "Foreign Key", "Local Key", "Pivot"}, rows)
	return nil
}

func renderReport(r *output.Renderer, rep *drift.Report) error {
	if r.EffectiveMode() == output.ModeJSON {
		return drift.WriteJSON(r.Writer(), rep)
	}

	r.Header(1, "Schema drift")
	changed := rep.Changed()
	if len(changed) == 0 {
		r.Success(fmt.Sprintf("All %d collection(s) match their tables.", len(rep.Diffs)))
		return nil
	}

	styles := r.Styles()
	rows := make([][]string, 0)
	for _, d := range changed {
		for _, ch := range d.Changes {
			kind := string(ch.Kind)
			if ch.Kind == drift.RemoveColumn {
				kind = styles.Removed.Render(kind)
			} else {
				kind = styles.Added.Render(kind)
			}
			rows = append(rows, []string{d.Collection, ch.Table, kind, ch.Column, ch.Type})
		}
	}
	r.Table([]string{"Collection", "Table", "Change", "Column", "Type"}, rows)
	for _, d := range changed {
		for _, ch := range d.AtRisk() {
			r.Warning(fmt.Sprintf("%s: dropping column %s would discard data in %d row(s)", d.Table, ch.Column, d.RowCount))
		}
	}
	r.Warning(fmt.Sprintf("%d of %d collection(s) drifted", len(changed), len(rep.Diffs)))
	return nil
}

func renderReconcile(r *output.Renderer, results []drift.Result) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	r.Header(1, "Reconcile")
	applied := 0
	for _, res := range results {
		for _, ch := range res.Applied {
			applied++
			r.Success(fmt.Sprintf("%s: %s %s", res.Table, ch.Kind, ch.Column))
		}
		for _, ch := range res.Skipped {
			r.Warning(fmt.Sprintf("%s: column %s is not declared; left in place", res.Table, ch.Column))
		}
	}
	if applied == 0 {
		r.Muted("Nothing to apply.")
	}
	return nil
}

func renderApply(r *output.Renderer, res *loader.Result) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}
	if !res.Changed() {
		r.Muted(fmt.Sprintf("No changes (%d collection(s) up to date).", len(res.Unchanged)))
		return nil
	}
	for _, name := range res.Created {
		r.Success("created collection " + name)
	}
	for _, name := range res.FieldsAdded {
		r.Success("added field " + name)
	}
	for _, name := range res.RelationshipsAdded {
		r.Success("added relationship " + name)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any, map[string]any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
	return fmt.Sprint(v)
}

// parseValue decodes s as JSON, falling back to the raw string so that
// --default draft and --default '"draft"' mean the same thing.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) && !strings.ContainsAny(s, ".eE") {
		return int64(f)
	}
	return v
}

// parseOptions decodes a JSON object of field options.
func parseOptions(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var opts map[string]any
	if err := json.Unmarshal([]byte(s), &opts); err != nil {
		return nil, fmt.Errorf("invalid --options: expected a JSON object: %w", err)
	}
	return opts, nil
}
