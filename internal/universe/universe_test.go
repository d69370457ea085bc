package universe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticUniverse_SeedsInitialSymbols(t *testing.T) {
	u := NewStaticUniverse([]string{"AAPL", "MSFT"})
	assert.Equal(t, []string{"AAPL", "MSFT"}, u.Symbols())
}

func TestStaticUniverse_ReplaceOverwritesSymbols(t *testing.T) {
	u := NewStaticUniverse([]string{"AAPL"})
	require.NoError(t, u.Replace(context.Background(), []string{"NVDA", "AMD"}))
	assert.Equal(t, []string{"NVDA", "AMD"}, u.Symbols())
}

func TestStaticUniverse_SymbolsReturnsCopyNotAlias(t *testing.T) {
	u := NewStaticUniverse([]string{"AAPL"})
	got := u.Symbols()
	got[0] = "MUTATED"
	assert.Equal(t, []string{"AAPL"}, u.Symbols())
}
