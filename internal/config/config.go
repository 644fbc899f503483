/*
 * Copyright 2023 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config holds the small set of process-wide settings that are read
// from hot paths (the outbound HTTP client to the Vehicle Management API),
// behind a sync.Once-guarded package-level accessor.
package config

import (
	"sync"
	"time"
)

// DefaultPurgeChunkSize is used whenever PURGE_CHUNK_SIZE is unset or zero.
// Treating an unset chunk size as unlimited would let a replay sweep flood a
// Vehicle Management API that may have only just come back up, so an unset
// value gets a bounded default instead.
const DefaultPurgeChunkSize = 500

type Config struct {
	APIBaseURL   string
	APIKey       string
	SSLVerify    bool
	HTTPTimeout  time.Duration
	PurgeChunk   int
	StorePath    string
	EnableSweep  bool
	SweepEvery   time.Duration
}

var (
	config *Config
	once   sync.Once
)

func NewConfig(c *Config) {
	once.Do(func() {
		if c != nil {
			if c.PurgeChunk <= 0 {
				c.PurgeChunk = DefaultPurgeChunkSize
			}
			config = c
		} else {
			config = &Config{PurgeChunk: DefaultPurgeChunkSize}
		}
	})
}

func GetConfig() *Config {
	if config != nil {
		return config
	}
	NewConfig(nil)
	return config
}
