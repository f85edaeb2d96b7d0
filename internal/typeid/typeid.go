package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixProject  = "proj"
	PrefixCanvas   = "canvas"
	PrefixObject   = "obj"
	PrefixArea     = "area"
	PrefixSession  = "sess"
	PrefixDocument = "doc"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewProjectID() string  { return New(PrefixProject) }
func NewCanvasID() string   { return New(PrefixCanvas) }
func NewObjectID() string   { return New(PrefixObject) }
func NewAreaID() string     { return New(PrefixArea) }
func NewSessionID() string  { return New(PrefixSession) }
func NewDocumentID() string { return New(PrefixDocument) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
