package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nikolayk812/ecart-demo/internal/config"
	"github.com/nikolayk812/ecart-demo/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("bad level: error", func(t *testing.T) {
		_, _, err := logging.New(config.LoggerConfig{Level: "loud"})
		require.ErrorContains(t, err, "logrus.ParseLevel")
	})

	t.Run("file output: ok", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ecart.log")

		log, closer, err := logging.New(config.LoggerConfig{
			Level:      "debug",
			FileEnable: true,
			Filename:   path,
		})
		require.NoError(t, err)
		assert.Equal(t, logrus.DebugLevel, log.Level)

		log.WithField("component", "test").Info("hello")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"message":"hello"`)
		assert.Contains(t, string(data), `"severity":"info"`)
		assert.Contains(t, string(data), `"component":"test"`)
	})
}
