package core_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gimvicurnik/urnik/core"
	tu "github.com/gimvicurnik/urnik/tests"
)

func TestNewConfig_OfflineDefaults(t *testing.T) {
	t.Setenv("ENV", "QA")
	t.Chdir(t.TempDir())

	conf, err := core.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, conf.API.BaseURL, conf.Offline.OriginURL)
	assert.Equal(t, "", conf.Offline.OfflinePage)
	assert.Contains(t, conf.Offline.Data, "/timetable")
}

func TestConfig_Watch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "urnik.yaml")
	require.NoError(t, os.WriteFile(file, []byte("api:\n  baseURL: http://one.test\n"), 0o600))

	t.Setenv("ENV", "QA")
	t.Setenv("QA_CONFIG_FILE", file)
	t.Chdir(dir)

	conf, err := core.NewConfig()
	require.NoError(t, err)
	require.Equal(t, "http://one.test", conf.API.BaseURL)

	logger := tu.NewLogger()
	conf.Watch(logger)
	require.NoError(t, os.WriteFile(file, []byte("api:\n  baseURL: http://two.test\n"), 0o600))

	require.Eventually(t, func() bool {
		for _, e := range logger.Entries("warn") {
			if strings.Contains(e.Msg, "restart to apply") {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	// values read at startup are kept
	assert.Equal(t, "http://one.test", conf.API.BaseURL)
	assert.Equal(t, "http://one.test", conf.Offline.OriginURL)
}
