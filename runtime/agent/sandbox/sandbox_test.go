package sandbox

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNonePresetIsDisabled(t *testing.T) {
	require.True(t, NonePreset.Disabled())
	require.False(t, Config{NetworkPolicy: NetworkFull}.Disabled())
}

func TestBuildEscapesSubpaths(t *testing.T) {
	cfg := Config{
		NetworkPolicy: NetworkNone,
		File:          FilePolicy{Kind: FilePolicyCustom, Write: []string{`/tmp/weird"dir\path`}},
	}
	profile, err := Build(cfg)
	require.NoError(t, err)

	joined := strings.Join(profile.Rules, "\n")
	require.Contains(t, joined, `\"dir\\path`)
	require.Equal(t, DefaultTimeout, profile.Timeout)
}

func TestBuildRejectsOutOfRangeTimeout(t *testing.T) {
	_, err := Build(Config{Timeout: 25 * time.Hour})
	require.Error(t, err)

	_, err = Build(Config{Timeout: -time.Second})
	require.Error(t, err)
}

func TestBuildNetworkPolicies(t *testing.T) {
	local, err := Build(Config{NetworkPolicy: NetworkLocal, File: FilePolicy{Kind: FilePolicyReadOnly}})
	require.NoError(t, err)
	require.Contains(t, strings.Join(local.Rules, "\n"), "local ip")

	full, err := Build(Config{NetworkPolicy: NetworkFull, File: FilePolicy{Kind: FilePolicyReadOnly}})
	require.NoError(t, err)
	require.Contains(t, strings.Join(full.Rules, "\n"), "(allow network*)")
}
