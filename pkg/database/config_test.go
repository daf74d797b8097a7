// Copyright 2024 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfig_NoFileReturnsDefaults(t *testing.T) {
	cfg, err := BuildConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestBuildConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Dir":"/var/inkpost","MaxChunkSize":4096,"ReadCacheSize":256}`), 0o644))

	cfg, err := BuildConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/inkpost", cfg.Dir)
	assert.Equal(t, int64(4096), cfg.MaxChunkSize)
	assert.Equal(t, 256, cfg.ReadCacheSize)
}

func TestBuildConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("INKPOST_DIR", `"/env/dir"`)

	cfg, err := BuildConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/env/dir", cfg.Dir)
}
