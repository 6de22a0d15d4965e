package model

import (
	"sort"
	"strings"
)

type CommitMode string

const (
	// CommitReplace updates paths on an existing owning entity.
	CommitReplace CommitMode = "replace"
	// CommitCreate inserts a new entity holding the uploaded assets.
	CommitCreate CommitMode = "create"
)

// UploadProfile is the immutable policy applied to one kind of upload.
type UploadProfile struct {
	Name         string         `validate:"required"`
	AllowedMime  []string       `validate:"min=1,dive,required"`
	MaxBytes     int64          `validate:"gt=0"`
	MaxCount     int            `validate:"gt=0"`
	Fields       map[string]int `validate:"min=1,dive,gt=0"`
	Bucket       string         `validate:"required"`
	Provider     string         `validate:"oneof=cloudinary objectstore"`
	ResourceType string
	Transform    Recipe

	Collection      string     `validate:"required"`
	Mode            CommitMode `validate:"oneof=replace create"`
	OwnerPath       string     `validate:"required"`
	VariantPaths    map[string]string
	AssetPath       string `validate:"required"`
	ActivityType    string `validate:"required"`
	ActivityMessage string

	// create-mode only
	AuthorField      string
	ParentField      string
	ParentCollection string
	FormFields       map[string]string
}

// Allows reports whether the declared MIME type is accepted.
func (p *UploadProfile) Allows(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	for _, m := range p.AllowedMime {
		if m == mime {
			return true
		}
	}
	return false
}

// IsArray is true when the profile accepts several files in one field.
func (p *UploadProfile) IsArray() bool {
	for _, n := range p.Fields {
		if n > 1 {
			return true
		}
	}
	return false
}

func (p *UploadProfile) FieldNames() []string {
	names := make([]string, 0, len(p.Fields))
	for f := range p.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// VariantNames returns the eager variant names in declaration order.
func (p *UploadProfile) VariantNames() []string {
	return p.Transform.VariantNames()
}
