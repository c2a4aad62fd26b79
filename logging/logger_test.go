package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, InitLogger("debug", "json", "file", path))
	t.Cleanup(func() { Close() })

	assert.Equal(t, logrus.DebugLevel, GetLogger().GetLevel())
	Component("feed").Info("Feed refreshed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"feed"`)
	assert.Contains(t, string(data), `"msg":"Feed refreshed"`)
}

func TestInitLogger_Invalid(t *testing.T) {
	assert.Error(t, InitLogger("loud", "text", "stdout", ""))
	assert.Error(t, InitLogger("info", "xml", "stdout", ""))
}

func TestGetLogger_Default(t *testing.T) {
	assert.NotNil(t, GetLogger())
	assert.NoError(t, Close())
}
