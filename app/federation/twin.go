package federation

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"
)

const (
	mapConfigQuery = "aspect=terria-config&aspect=terria-init&aspect=group&optionalAspect=terria&dereference=true"
	recordQuery    = "optionalAspect=terria&optionalAspect=group&optionalAspect=dcat-dataset-strings" +
		"&optionalAspect=dcat-distribution-strings&optionalAspect=dataset-distributions" +
		"&optionalAspect=dataset-format&dereference=true"

	// Registry groups nest a few levels at most
	maxRecordDepth = 8
)

// twinMembers turns the top level groups of a twin's map config into
// magda references, each carrying its fixed up registry record
func (a *Aggregator) twinMembers(ctx context.Context, t Twin) ([]any, error) {
	v, err := a.get(ctx, recordURL(t, "map-config", mapConfigQuery))
	if err != nil {
		return nil, err
	}
	config, _ := v.(map[string]any)
	listed, _ := dig(config, "aspects", "group", "members").([]any)

	members := make([]any, 0, len(listed))
	var refs []map[string]any
	for _, m := range listed {
		ref, ok := m.(map[string]any)
		if !ok {
			continue
		}
		delete(ref, "aspects")
		delete(ref, "authnReadPolicyId")
		ref["url"] = t.Root
		ref["type"] = "magda"
		ref["recordId"] = ref["id"]
		refs = append(refs, ref)
		members = append(members, ref)
	}

	// Each goroutine owns one reference
	var g errgroup.Group
	g.SetLimit(a.limit)
	for _, ref := range refs {
		g.Go(func() error {
			a.attachRecord(ctx, t, ref)
			return nil
		})
	}
	g.Wait()

	return members, nil
}

func (a *Aggregator) attachRecord(ctx context.Context, t Twin, ref map[string]any) {
	id, _ := ref["id"].(string)
	if id == "" {
		return
	}
	record, err := a.record(ctx, t, id)
	if err != nil {
		logf(t, "skipping record %s: %v", id, err)
		return
	}

	a.fixRecord(ctx, t, record, 0)
	ref["magdaRecord"] = record
	if isGroupRecord(record) {
		ref["isGroup"] = true
	}
}

func (a *Aggregator) record(ctx context.Context, t Twin, id string) (map[string]any, error) {
	v, err := a.get(ctx, recordURL(t, id, recordQuery))
	if err != nil {
		return nil, err
	}
	record, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record %s is not an object", id)
	}
	return record, nil
}

// fixRecord rewrites dataset urls in a record and its members, drops
// hidden item types and expands groups listed by id only
func (a *Aggregator) fixRecord(ctx context.Context, t Twin, record map[string]any, depth int) {
	if depth > maxRecordDepth {
		return
	}

	if terria, ok := dig(record, "aspects", "terria").(map[string]any); ok {
		if def, ok := terria["definition"].(map[string]any); ok {
			if u, ok := def["url"].(string); ok && u != "" {
				def["url"] = t.rewriteURL(u)
			}
		}
		if itemType, _ := terria["type"].(string); itemType != "" && t.hides(itemType) {
			clear(record)
			return
		}
	}

	group, _ := dig(record, "aspects", "group").(map[string]any)
	members, _ := group["members"].([]any)
	if len(members) == 0 {
		return
	}

	if allStrings(members) {
		id, _ := record["id"].(string)
		expanded, err := a.record(ctx, t, id)
		if err != nil {
			logf(t, "leaving group %s unexpanded: %v", id, err)
			return
		}
		dereferenced, ok := dig(expanded, "aspects", "group", "members").([]any)
		if !ok {
			return
		}
		group["members"] = dereferenced
		members = dereferenced
	}

	for _, m := range members {
		if child, ok := m.(map[string]any); ok {
			a.fixRecord(ctx, t, child, depth+1)
		}
	}
}

func isGroupRecord(record map[string]any) bool {
	if _, ok := dig(record, "aspects", "group", "members").([]any); ok {
		return true
	}
	isGroup, _ := dig(record, "aspects", "terria", "definition", "isGroup").(bool)
	return isGroup
}

func recordURL(t Twin, id, query string) string {
	return t.Root + "/api/v0/registry/records/" + url.PathEscape(id) + "?" + query
}

func allStrings(values []any) bool {
	for _, v := range values {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}

// dig walks nested JSON objects, nil when a key is missing
func dig(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}
