package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := Document{"name": "A", "phone": "000"}
	partial := Document{"phone": "123"}

	merged := Merge(base, partial)

	assert.Equal(t, "A", merged["name"])
	assert.Equal(t, "123", merged["phone"])
	assert.Equal(t, "000", base["phone"])
}

func TestMergeAbsentKeyPreservedEmptyValueWritten(t *testing.T) {
	base := Document{"name": "A", "company": "Acme"}

	merged := Merge(base, Document{"company": ""})

	assert.Equal(t, "A", merged["name"])
	assert.Equal(t, "", merged["company"])
}

func TestAccessorsTolerateNilAndMistyped(t *testing.T) {
	assert.Equal(t, "", Str(nil, "x"))
	assert.Nil(t, Sub(nil, "x"))
	assert.Nil(t, List(nil, "x"))

	doc := Document{"n": 42, "m": "not a map", "l": "not a list"}
	assert.Equal(t, "", Str(doc, "n"))
	assert.Nil(t, Sub(doc, "m"))
	assert.Nil(t, List(doc, "l"))
}

func TestDefaultProfileShape(t *testing.T) {
	p := DefaultProfile("u1", "u1@example.com", "")
	assert.Equal(t, "u1", p["userId"])
	assert.Equal(t, "user-profile", p["type"])
	_, hasAuthType := p["authType"]
	assert.False(t, hasAuthType)

	withAuth := DefaultProfile("u1", "u1@example.com", "api-key")
	assert.Equal(t, "api-key", withAuth["authType"])
}
