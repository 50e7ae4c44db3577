package record

import (
	"encoding/json"
	"strings"
)

// Record is a raw API record as decoded from JSON. The search API returns
// the same logical field in several shapes depending on the query context
// and API version: flat on the record, nested under "attributes", or as a
// JSON:API relationship. All reads go through Resolve so every caller gets
// the same fallback semantics.
type Record map[string]any

// lookup is a single strategy for locating a canonical field.
type lookup struct {
	kind lookupKind
	key  string
}

type lookupKind int

const (
	lookupFlat lookupKind = iota
	lookupAttribute
	lookupRelationship
)

func flat(key string) lookup         { return lookup{lookupFlat, key} }
func attribute(key string) lookup    { return lookup{lookupAttribute, key} }
func relationship(rel string) lookup { return lookup{lookupRelationship, rel} }

// lookups maps canonical field names to their ordered lookup strategies.
// Fields not listed here fall back to flat-then-attributes under the
// canonical name itself.
var lookups = map[string][]lookup{
	"conversationId": {flat("conversationId"), attribute("conversationId"), relationship("conversation")},
	"customerId":     {flat("customerId"), attribute("customerId"), relationship("customer")},
	"createdBy":      {relationship("createdBy"), flat("createdBy"), flat("createdById"), attribute("createdBy")},
	"createdByTeams": {relationship("createdByTeams"), flat("createdByTeams"), attribute("createdByTeams")},
	"firstDoneBy":    {flat("firstDoneBy"), attribute("firstDoneBy"), flat("firstDoneById"), relationship("firstDoneBy")},
	"lastDoneBy":     {flat("lastDoneById"), attribute("lastDoneById"), relationship("lastDoneBy")},
	"userId":         {flat("userId"), attribute("userId"), relationship("user")},
	"teams":          {relationship("teams"), flat("teams"), attribute("teams")},
}

// Resolve locates a canonical field across the known record shapes and
// returns the first hit. Relationship lookups treat nil, empty strings and
// empty lists as absent; flat and attribute lookups do not, so numeric and
// boolean zero values pass through.
func (r Record) Resolve(name string) (any, bool) {
	strategies, ok := lookups[name]
	if !ok {
		strategies = []lookup{flat(name), attribute(name)}
	}

	for _, s := range strategies {
		switch s.kind {
		case lookupFlat:
			if v, ok := r[s.key]; ok && v != nil {
				return v, true
			}
		case lookupAttribute:
			if attrs := r.child("attributes"); attrs != nil {
				if v, ok := attrs[s.key]; ok && v != nil {
					return v, true
				}
			}
		case lookupRelationship:
			if v, ok := r.relationshipValue(s.key); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// relationshipValue reads relationships.<rel>.data and returns either the
// single related id or the list of related ids.
func (r Record) relationshipValue(rel string) (any, bool) {
	rels := r.child("relationships")
	if rels == nil {
		return nil, false
	}
	entry := Record(rels).child(rel)
	if entry == nil {
		return nil, false
	}

	switch data := entry["data"].(type) {
	case map[string]any:
		if id := stringValue(data["id"]); id != "" {
			return id, true
		}
	case []any:
		ids := idsFromList(data)
		if len(ids) > 0 {
			return ids, true
		}
	}
	return nil, false
}

// ID returns the record's own id.
func (r Record) ID() string {
	return stringValue(r["id"])
}

// String resolves a canonical field as a string; absent or non-string
// values yield "".
func (r Record) String(name string) string {
	v, ok := r.Resolve(name)
	if !ok {
		return ""
	}
	return stringValue(v)
}

// Number resolves a canonical field as a float64. The second return is
// false when the field is absent or not numeric; malformed samples are the
// caller's signal to skip that metric only.
func (r Record) Number(name string) (float64, bool) {
	v, ok := r.Resolve(name)
	if !ok {
		return 0, false
	}
	return numberValue(v)
}

// Bool resolves a canonical field as a boolean. String forms of the
// upstream boolean filters ("true", "True") are accepted.
func (r Record) Bool(name string) bool {
	v, ok := r.Resolve(name)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}

// Object resolves a canonical field as a nested record (flat key first,
// then under attributes). Returns nil when absent or not an object.
func (r Record) Object(name string) Record {
	if child := r.child(name); child != nil {
		return Record(child)
	}
	if attrs := r.child("attributes"); attrs != nil {
		if child := Record(attrs).child(name); child != nil {
			return Record(child)
		}
	}
	return nil
}

// StringList resolves a canonical field as a list of ids. List elements may
// be plain strings or {id: …} objects.
func (r Record) StringList(name string) []string {
	v, ok := r.Resolve(name)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		return idsFromList(list)
	case string:
		if list != "" {
			return []string{list}
		}
	}
	return nil
}

// Present reports whether a canonical field resolves to a non-empty value.
// Used for indicator fields (shortcuts) where only presence matters.
func (r Record) Present(name string) bool {
	v, ok := r.Resolve(name)
	if !ok {
		return false
	}
	switch val := v.(type) {
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	return true
}

func (r Record) child(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

func idsFromList(list []any) []string {
	ids := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			if v != "" {
				ids = append(ids, v)
			}
		case map[string]any:
			if id := stringValue(v["id"]); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// NumberValue converts a resolved value to a float64. Callers use it to
// tell a malformed numeric sample apart from an absent field.
func NumberValue(v any) (float64, bool) {
	return numberValue(v)
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
