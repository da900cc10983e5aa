package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("NEURO_TEST_STR", "value")
	assert.Equal(t, "value", GetEnv("NEURO_TEST_STR", "x"))
	assert.Equal(t, "x", GetEnv("NEURO_TEST_MISSING", "x"))

	t.Setenv("NEURO_TEST_EMPTY", "")
	assert.Equal(t, "", GetEnv("NEURO_TEST_EMPTY", "x"), "set but empty wins over fallback")
}

func TestGetEnvInt(t *testing.T) {
	v, err := GetEnvInt("NEURO_TEST_INT_MISSING", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	t.Setenv("NEURO_TEST_INT", " 42 ")
	v, err = GetEnvInt("NEURO_TEST_INT", 7)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	t.Setenv("NEURO_TEST_INT", "many")
	_, err = GetEnvInt("NEURO_TEST_INT", 7)
	assert.Error(t, err)
}

func TestGetEnvBool(t *testing.T) {
	assert.True(t, GetEnvBool("NEURO_TEST_BOOL_MISSING", true))

	for raw, want := range map[string]bool{"true": true, "1": true, "TRUE": true, "false": false, "0": false} {
		t.Setenv("NEURO_TEST_BOOL", raw)
		assert.Equal(t, want, GetEnvBool("NEURO_TEST_BOOL", !want), raw)
	}

	t.Setenv("NEURO_TEST_BOOL", "maybe")
	assert.False(t, GetEnvBool("NEURO_TEST_BOOL", false))
}

func TestGetEnvDuration(t *testing.T) {
	d, err := GetEnvDuration("NEURO_TEST_DUR_MISSING", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	t.Setenv("NEURO_TEST_DUR", "45s")
	d, err = GetEnvDuration("NEURO_TEST_DUR", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	t.Setenv("NEURO_TEST_DUR", "soon")
	_, err = GetEnvDuration("NEURO_TEST_DUR", time.Minute)
	assert.Error(t, err)
}
