package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetMinorVersion(t *testing.T) {
	require.Equal(t, "0.4", GetMinorVersion("0.4.2"))
	require.Equal(t, "1.12", GetMinorVersion("1.12.0"))
	require.Equal(t, "", GetMinorVersion("0.4"))
}

func TestVersionComparison(t *testing.T) {
	require.True(t, IsVersionGreaterThan("0.4.2", "0.4.1"))
	require.True(t, IsVersionGreaterThan("0.10.0", "0.9.9"))
	require.False(t, IsVersionGreaterThan("0.4.2", "0.4.2"))

	require.True(t, IsVersionGreaterOrEqualThan("0.4.2", "0.4.2"))
	require.True(t, IsVersionGreaterOrEqualThan("0.5.0", "0.4.2"))
	require.False(t, IsVersionGreaterOrEqualThan("0.4.1", "0.4.2"))
}

func TestGetSchemaVersion(t *testing.T) {
	require.Equal(t, "0.4.0", GetSchemaVersion("prod"))
	require.Equal(t, "0.4.0", GetSchemaVersion("dev"))
}
