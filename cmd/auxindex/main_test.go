package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runArgs(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// TestRun_Default verifies the no-argument run prints the mapping for the literal inputs.
func TestRun_Default(t *testing.T) {
	code, out, _ := runArgs(t)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "{0: 14, 98: 8, 16: 14, 8227: 5, 63: 1}\n", out)
}

func TestRun_Flags(t *testing.T) {
	code, out, _ := runArgs(t, "--nonce", "7", "--chain-id", "98,63")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "{98: 7, 63: 0}\n", out)
}

func TestRun_JSONWithRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chains:\n  - {id: 98, name: dogecoin}\n"), 0644))

	code, out, _ := runArgs(t, "--format", "json", "--chains", path)
	require.Equal(t, exitOK, code)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 5)
	assert.Equal(t, "dogecoin", records[1]["name"])
	assert.Equal(t, float64(8), records[1]["index"])
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auxindex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index:\n  height: 8\n  chain_ids: [0, 8227]\n"), 0644))

	code, out, _ := runArgs(t, "--config", path)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "{0: 126, 8227: 101}\n", out)
}

func TestRun_ConfigChainIDOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auxindex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index:\n  chain_ids: [98, 4294967394]\n"), 0644))

	code, out, errOut := runArgs(t, "--config", path)
	assert.Equal(t, exitUsage, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "4294967394")
}

func TestRun_Solve(t *testing.T) {
	code, out, _ := runArgs(t, "--solve", "--max-height", "8")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "{0: 30, 98: 24, 16: 14, 8227: 5, 63: 17}\n", out)
}

func TestRun_SolveNoLayout(t *testing.T) {
	code, _, errOut := runArgs(t, "--solve", "--chain-id", "0,16", "--max-height", "4")
	assert.Equal(t, exitCompute, code)
	assert.Contains(t, errOut, "no collision-free layout")
}

func TestRun_InvalidHeight(t *testing.T) {
	code, out, errOut := runArgs(t, "--height", "31")
	assert.Equal(t, exitUsage, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "index.height")
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, _ := runArgs(t, "--bogus")
	assert.Equal(t, exitUsage, code)
}

func TestRun_Help(t *testing.T) {
	code, _, errOut := runArgs(t, "--help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, errOut, "--chain-id")
}

func hashArg(id, b string) string {
	return id + "=" + strings.Repeat(b, 32)
}

func threeChainArgs(extra ...string) []string {
	args := []string{
		"--height", "3", "--chain-id", "98,8227,63",
		"--block-hash", hashArg("98", "01"),
		"--block-hash", hashArg("0x2023", "02"),
		"--block-hash", hashArg("63", "03"),
	}
	return append(args, extra...)
}

func TestRun_Commitment(t *testing.T) {
	code, out, _ := runArgs(t, threeChainArgs()...)
	require.Equal(t, exitOK, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "{98: 0, 8227: 5, 63: 1}", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "fabe6d6d"))
	assert.True(t, strings.HasSuffix(lines[1], "0800000000000000"))
	assert.Len(t, lines[1], 88)
	assert.True(t, strings.HasPrefix(lines[2], "98 03"))
	assert.True(t, strings.HasSuffix(lines[4], "01000000"))
}

// TestRun_CommitmentStructured verifies stdout stays a single document with --block-hash.
func TestRun_CommitmentStructured(t *testing.T) {
	code, out, _ := runArgs(t, threeChainArgs("--format", "json")...)
	require.Equal(t, exitOK, code)

	var doc struct {
		Commitment string           `json:"commitment"`
		Slots      []map[string]any `json:"slots"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.True(t, strings.HasPrefix(doc.Commitment, "fabe6d6d"))
	require.Len(t, doc.Slots, 3)
	assert.NotEmpty(t, doc.Slots[2]["branch"])

	code, out, _ = runArgs(t, threeChainArgs("--format", "yaml")...)
	require.Equal(t, exitOK, code)
	var yamlDoc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &yamlDoc))
	assert.Contains(t, yamlDoc, "commitment")
	assert.Contains(t, yamlDoc, "slots")
}

func TestRun_CommitmentUnknownChain(t *testing.T) {
	code, out, errOut := runArgs(t, threeChainArgs("--block-hash", hashArg("12345", "04"))...)
	assert.Equal(t, exitCompute, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "chain not in assignment")
}

func TestRun_CommitmentDuplicateChain(t *testing.T) {
	code, out, errOut := runArgs(t, threeChainArgs("--block-hash", hashArg("0x62", "05"))...)
	assert.Equal(t, exitUsage, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "duplicate chain id")
}

func TestRun_CommitmentCollision(t *testing.T) {
	code, out, errOut := runArgs(t, "--block-hash", hashArg("0", "00"))
	assert.Equal(t, exitCompute, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "building commitment")
}

// TestRun_ErrorReportedOnce verifies a failure reaches stderr through the logger alone.
func TestRun_ErrorReportedOnce(t *testing.T) {
	code, _, errOut := runArgs(t, "--solve", "--chain-id", "0,16", "--max-height", "4")
	assert.Equal(t, exitCompute, code)
	assert.Equal(t, 1, strings.Count(errOut, "no collision-free layout"))
}
