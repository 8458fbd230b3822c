package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCrypto(t *testing.T) {
	crypto := []string{"BTCUSD", "ethusdt", "XAUUSD", "solusd", "btcjpy"}
	for _, s := range crypto {
		assert.True(t, IsCrypto(s), "%s should route to the crypto column", s)
	}

	other := []string{"EURJPY", "gbpchf", "EURUSD", "usdjpy", "DE40", ""}
	for _, s := range other {
		assert.False(t, IsCrypto(s), "%s should route to the fiat column", s)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "eurusd", Normalize("  EURUSD "))
	assert.Equal(t, "", Normalize("   "))
}
