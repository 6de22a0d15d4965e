package model

import (
	"encoding/json"
	"strings"
	"time"
)

// privateFields never leave the service in an entity view.
var privateFields = []string{"password", "passwordHash", "refreshToken", "resetPasswordToken"}

// Document is an owning entity in the document store.
type Document struct {
	Collection string
	ID         string
	Version    int64
	Body       map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewDocument(collection, id string) *Document {
	return &Document{Collection: collection, ID: id, Body: map[string]any{}}
}

// Get resolves a dotted path such as "profile.avatar".
func (d *Document) Get(path string) (any, bool) {
	var cur any = d.Body
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func (d *Document) String(path string) string {
	v, _ := d.Get(path)
	s, _ := v.(string)
	return s
}

// Set writes value at a dotted path, creating intermediate objects.
func (d *Document) Set(path string, value any) {
	if d.Body == nil {
		d.Body = map[string]any{}
	}
	segs := strings.Split(path, ".")
	cur := d.Body
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// AssetAt decodes the AssetRef stored at path, if any.
func (d *Document) AssetAt(path string) (*AssetRef, bool) {
	v, ok := d.Get(path)
	if !ok || v == nil {
		return nil, false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var ref AssetRef
	if err := json.Unmarshal(raw, &ref); err != nil || ref.ProviderID == "" {
		return nil, false
	}
	return &ref, true
}

// Clone deep-copies the body through JSON so mutations never leak.
func (d *Document) Clone() *Document {
	c := *d
	c.Body = map[string]any{}
	if raw, err := json.Marshal(d.Body); err == nil {
		_ = json.Unmarshal(raw, &c.Body)
	}
	return &c
}

// View is the client representation: body plus id, private fields removed.
func (d *Document) View() map[string]any {
	out := make(map[string]any, len(d.Body)+1)
	for k, v := range d.Body {
		out[k] = v
	}
	for _, f := range privateFields {
		delete(out, f)
	}
	out["id"] = d.ID
	return out
}
