/*
 * Copyright 2025 tomoncle.
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

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))
}

func TestNewLoggerIsShared(t *testing.T) {
	assert.Same(t, NewLogger("SHARED"), NewLogger("SHARED"))
	assert.False(t, SetLoggerLevel("NEVER_CREATED", "debug"))
	assert.True(t, SetLoggerLevel("SHARED", "error"))
	assert.Equal(t, logrus.ErrorLevel, NewLogger("SHARED").GetLevel())
}

func TestFormats(t *testing.T) {
	var buf bytes.Buffer
	ConfigureLogOutput(&buf)
	t.Cleanup(func() {
		ConfigureLogOutput(os.Stdout)
		ConfigureLogFormat("text")
		ConfigureLogLevel("info")
	})
	ConfigureLogLevel("info")

	lg := NewLogger("FORMAT")
	ConfigureLogFormat("text")
	lg.WithField("table", "users").Info("text line")
	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "[    FORMAT]")
	assert.Contains(t, out, "utils/logger_test.go:")
	assert.Contains(t, out, "text line table=users")

	buf.Reset()
	ConfigureLogFormat("JSON")
	lg.WithField("error", errors.New("boom")).Warn("json line")
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "FORMAT", rec["model"])
	assert.Equal(t, "json line", rec["message"])
	assert.Equal(t, map[string]interface{}{"error": "boom"}, rec["fields"])

	buf.Reset()
	ConfigureLogLevel("error")
	lg.Info("dropped")
	assert.Empty(t, buf.String())
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("REPOKIT_TEST_BOOL", "yes")
	assert.True(t, EnvDefaultBool("REPOKIT_TEST_BOOL", true))
	t.Setenv("REPOKIT_TEST_BOOL", "false")
	assert.False(t, EnvDefaultBool("REPOKIT_TEST_BOOL", true))
	assert.Equal(t, "fallback", EnvDefaultString("REPOKIT_TEST_UNSET", "fallback"))
}
