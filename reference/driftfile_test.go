/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package reference

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDriftFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift")

	require.NoError(t, WriteDriftFile(path, 1.2345, 3.4e-8))

	freq, skew, ok := ReadDriftFile(path)
	require.True(t, ok)
	require.InDelta(t, 1.2345, freq, 5e-7)
	require.InDelta(t, 3.4e-8*1e6, skew, 5e-7)
}

func TestDriftFileMissing(t *testing.T) {
	_, _, ok := ReadDriftFile(filepath.Join(t.TempDir(), "does-not-exist"))
	require.False(t, ok)
}

func TestDriftFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift")
	require.NoError(t, os.WriteFile(path, []byte("not a number\n"), 0644))

	_, _, ok := ReadDriftFile(path)
	require.False(t, ok)
}

func TestDriftFileAtomicReplacePreservesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift")
	require.NoError(t, os.WriteFile(path, []byte("0 0\n"), 0600))

	require.NoError(t, WriteDriftFile(path, 5, 1e-7))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// no .tmp leftover
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestDriftFileEmptyPathIsNoop(t *testing.T) {
	require.NoError(t, WriteDriftFile("", 1, 1))
	_, _, ok := ReadDriftFile("")
	require.False(t, ok)
}

func TestDriftFileCreatesMissingParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "drift")

	require.NoError(t, WriteDriftFile(path, 0.5, 1e-7))

	freq, _, ok := ReadDriftFile(path)
	require.True(t, ok)
	require.InDelta(t, 0.5, freq, 5e-7)
}

func TestDriftFileWriterFormatMatchesReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift")
	require.NoError(t, WriteDriftFile(path, -12.5, 2e-6))
	freq, skew, ok := ReadDriftFile(path)
	require.True(t, ok)
	require.False(t, math.IsNaN(freq))
	require.False(t, math.IsNaN(skew))
}
