// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/litreview/pkg/types"
)

func testProviderConfig() types.ProviderConfig {
	return types.ProviderConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "litreview-test/0.1",
		},
		RequestsPerSecond: 1000,
		BurstLimit:        1000,
		RetryAttempts:     1,
	}
}

func TestRegistrySelectPreservesOrder(t *testing.T) {
	cfg := testProviderConfig()
	reg := NewRegistry(
		NewPubMed(cfg, nil),
		NewSemanticScholar(cfg, nil),
		NewArxiv(cfg, nil),
	)

	selected := reg.Select([]types.PaperSource{
		types.SourceArxiv,
		types.SourcePubMed,
		types.SourceEuropePMC, // not registered, skipped
	})

	assert.Len(t, selected, 2)
	assert.Equal(t, types.SourceArxiv, selected[0].Name())
	assert.Equal(t, types.SourcePubMed, selected[1].Name())
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry(NewArxiv(testProviderConfig(), nil))

	p, ok := reg.Get(types.SourceArxiv)
	assert.True(t, ok)
	assert.Equal(t, types.SourceArxiv, p.Name())

	_, ok = reg.Get(types.SourceCrossRef)
	assert.False(t, ok)
}

func TestDefaultRegistryHasAllProviders(t *testing.T) {
	reg := DefaultRegistry(types.DefaultEngineConfig(), nil)
	assert.Len(t, reg.All(), 5)
	for _, s := range types.AllSources {
		_, ok := reg.Get(s)
		assert.True(t, ok, "missing provider %s", s)
	}
}
