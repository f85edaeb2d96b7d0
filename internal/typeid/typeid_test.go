package typeid_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwise/buildwise/backend-go/internal/typeid"
)

func TestNewAndValidate(t *testing.T) {
	cases := map[string]func() string{
		typeid.PrefixUser:     typeid.NewUserID,
		typeid.PrefixProject:  typeid.NewProjectID,
		typeid.PrefixCanvas:   typeid.NewCanvasID,
		typeid.PrefixObject:   typeid.NewObjectID,
		typeid.PrefixArea:     typeid.NewAreaID,
		typeid.PrefixSession:  typeid.NewSessionID,
		typeid.PrefixDocument: typeid.NewDocumentID,
	}
	for prefix, gen := range cases {
		id := gen()
		assert.True(t, strings.HasPrefix(id, prefix+"_"), id)
		require.NoError(t, typeid.Validate(id, prefix))
	}
}

func TestValidateRejects(t *testing.T) {
	assert.Error(t, typeid.Validate("not-a-typeid", typeid.PrefixUser))
	assert.Error(t, typeid.Validate(typeid.NewUserID(), typeid.PrefixCanvas))
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := typeid.NewObjectID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
