package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/livp123/gfcore/internal/config"
)

// TestResolveConfigPath tests the fallback to the default settings path
// TestResolveConfigPath 测试回退到默认设置路径
func TestResolveConfigPath(t *testing.T) {
	original := ConfigPath
	defer func() { ConfigPath = original }()

	t.Setenv(EnvConfigPath, "")
	ConfigPath = ""
	assert.Equal(t, config.DefaultConfigPath, ResolveConfigPath())

	t.Setenv(EnvConfigPath, "/etc/gfcore/user.yaml")
	assert.Equal(t, "/etc/gfcore/user.yaml", ResolveConfigPath())

	ConfigPath = "/tmp/test_config.yaml"
	assert.Equal(t, "/tmp/test_config.yaml", ResolveConfigPath())
}

func TestValidateOutput(t *testing.T) {
	original := Output
	defer func() { Output = original }()

	for _, v := range []string{OutputText, OutputJSON} {
		Output = v
		assert.NoError(t, ValidateOutput())
	}
	Output = "xml"
	assert.EqualError(t, ValidateOutput(), `unknown output format "xml" (want text or json)`)
}
