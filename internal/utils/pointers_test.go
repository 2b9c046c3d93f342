package utils_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/backoffice-console/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointers(t *testing.T) {
	t.Run("value of nil is zero", func(t *testing.T) {
		require.Equal(t, "", utils.Value[string](nil))
		require.Equal(t, 0, utils.Value[int](nil))
		require.Equal(t, "x", utils.Value(utils.Ptr("x")))
	})

	t.Run("map keeps nil", func(t *testing.T) {
		require.Nil(t, utils.MapPtr(nil, strings.TrimSpace))
		require.Equal(t, "Amina", *utils.MapPtr(utils.Ptr("  Amina "), strings.TrimSpace))
	})
}
