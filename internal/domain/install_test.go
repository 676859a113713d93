package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInstallRequest_DeduplicatesExactStrings(t *testing.T) {
	req := NewInstallRequest([]string{"HugsLib", "123", "HugsLib", "hugslib", "", "123"}, true)

	assert.Equal(t, []string{"HugsLib", "123", "hugslib"}, req.Requested)
	assert.True(t, req.ResolveDependencies)
	assert.NotNil(t, req.Visited)
	assert.Empty(t, req.Visited)
}

func TestVisitedSet(t *testing.T) {
	v := make(VisitedSet)
	assert.False(t, v.Has(42))
	v.Add(42)
	v.Add(42)
	assert.True(t, v.Has(42))
	assert.Len(t, v, 1)
}

func TestCountFailed(t *testing.T) {
	outcomes := []InstallOutcome{
		{ID: 1, Succeeded: true},
		{ID: 2},
		{Identifier: "missing"},
	}
	assert.Equal(t, 2, CountFailed(outcomes))
	assert.Zero(t, CountFailed(nil))
}
