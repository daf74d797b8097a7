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
	"fmt"

	"github.com/inkpost/inkpost/golibs/config"
	"github.com/inkpost/inkpost/pkg/storage/chunkfs"
)

// Config controls where a Database stores its chunk files, how large a
// single chunk is allowed to grow before a rollover is forced, and how
// many recently read posts a front-side readcache.CachedStore should hold.
type Config struct {
	Dir           string
	MaxChunkSize  int64
	ReadCacheSize int
}

// defaultReadCacheSize mirrors readcache's own default, so a Config built
// with GetDefaultConfig and handed to readcache.NewCachedStore behaves
// the same as passing a cacheSize of 0.
const defaultReadCacheSize = 10000

// GetDefaultConfig returns the configuration a Database uses if none is
// supplied: chunks rooted at "./data", capped at chunkfs.DefaultMaxChunkSize.
func GetDefaultConfig() Config {
	return Config{
		Dir:           "./data",
		MaxChunkSize:  chunkfs.DefaultMaxChunkSize,
		ReadCacheSize: defaultReadCacheSize,
	}
}

// BuildConfig assembles a Config from, in increasing priority: the
// defaults, cfgFile (if non-empty, a YAML or JSON file), and then
// environment variables prefixed INKPOST_.
func BuildConfig(cfgFile string) (Config, error) {
	base := config.NewEnricher(GetDefaultConfig())
	fromFile := config.NewEnricher(Config{})
	if err := fromFile.LoadFromFile(cfgFile); err != nil {
		return Config{}, fmt.Errorf("could not read config from %s: %w", cfgFile, err)
	}
	_ = base.ApplyOther(fromFile)
	_ = base.ApplyEnvVariables("INKPOST", "_")
	return base.Value(), nil
}
