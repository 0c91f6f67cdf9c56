package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createPoll = `<?xml version="1.0"?>
<ifmap:response xmlns:ifmap="http://www.trustedcomputinggroup.org/2010/IFMAP/2"
    xmlns:contrail="http://www.contrailsystems.com/vnc_cfg.xsd">
  <pollResult>
    <searchResult>
      <resultItem>
        <identity name="contrail:virtual-network:a:b:c" type="other"/>
        <metadata>
          <contrail:id-perms ifmap-cardinality="singleValue">
            <uuid><uuid-mslong>1</uuid-mslong><uuid-lslong>2</uuid-lslong></uuid>
          </contrail:id-perms>
          <contrail:display-name ifmap-cardinality="singleValue">c</contrail:display-name>
        </metadata>
      </resultItem>
    </searchResult>
  </pollResult>
</ifmap:response>`

const deletePoll = `<?xml version="1.0"?>
<ifmap:response xmlns:ifmap="http://www.trustedcomputinggroup.org/2010/IFMAP/2"
    xmlns:contrail="http://www.contrailsystems.com/vnc_cfg.xsd">
  <pollResult>
    <deleteResult>
      <resultItem>
        <identity name="contrail:virtual-network:a:b:c" type="other"/>
        <metadata>
          <contrail:id-perms ifmap-cardinality="singleValue">
            <uuid><uuid-mslong>1</uuid-mslong><uuid-lslong>2</uuid-lslong></uuid>
          </contrail:id-perms>
        </metadata>
      </resultItem>
    </deleteResult>
  </pollResult>
</ifmap:response>`

type wireEvent struct {
	Operation string                       `json:"operation"`
	Message   string                       `json:"message"`
	DB        map[string]map[string]string `json:"db"`
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"-config", filepath.Join(t.TempDir(), "none.yml")}, args...)
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func decodeEvents(t *testing.T, raw []byte) []wireEvent {
	t.Helper()
	var events []wireEvent
	require.NoError(t, json.Unmarshal(raw, &events))
	return events
}

func TestRunStdinToStdout(t *testing.T) {
	code, stdout, stderr := runCLI(t, createPoll)
	require.Equal(t, 0, code, stderr)

	assert.True(t, strings.HasPrefix(stdout, "[\n    {\n"))
	events := decodeEvents(t, []byte(stdout))
	require.Len(t, events, 1)
	assert.Equal(t, "db_sync", events[0].Operation)
	assert.Equal(t, `["a","b","c"]`, events[0].DB["00000000-0000-0001-0000-000000000002"]["fq_name"])
}

func TestRunChainWritesFilesPerDocument(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "poll1.xml")
	second := filepath.Join(dir, "poll2.xml")
	require.NoError(t, os.WriteFile(first, []byte(createPoll), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(deletePoll), 0o644))
	out := filepath.Join(dir, "out")
	metricsFile := filepath.Join(out, "run.prom")

	code, stdout, stderr := runCLI(t, "", "-chain", "-compact", "-dot", "-out", out, "-metrics", metricsFile, first, second)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	raw, err := os.ReadFile(filepath.Join(out, "poll1.json"))
	require.NoError(t, err)
	assert.Len(t, decodeEvents(t, raw), 1)

	raw, err = os.ReadFile(filepath.Join(out, "poll2.json"))
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "\n    "))
	events := decodeEvents(t, raw)
	require.Len(t, events, 3)
	assert.Equal(t, "pause", events[1].Operation)
	assert.Equal(t, "rabbit_enqueue", events[2].Operation)
	assert.Contains(t, events[2].Message, `"oper":"DELETE"`)
	assert.Contains(t, events[2].Message, `"id":"2:00000000-0000-0001-0000-000000000002"`)
	assert.Empty(t, events[2].DB)

	_, err = os.Stat(filepath.Join(out, "poll2.dot"))
	assert.NoError(t, err)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "ifmap2json_documents_total 2")
}

func TestRunWritesNextToInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "initial.xml")
	require.NoError(t, os.WriteFile(input, []byte(createPoll), 0o644))

	code, _, stderr := runCLI(t, "", input)
	require.Equal(t, 0, code, stderr)
	_, err := os.Stat(filepath.Join(dir, "initial.json"))
	assert.NoError(t, err)
}

func TestRunFailsOnMalformedInput(t *testing.T) {
	code, stdout, stderr := runCLI(t, "<pollResult>", "-")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "malformed")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	code, _, _ := runCLI(t, "", "-bogus")
	assert.Equal(t, 2, code)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("in", "poll.json"), outputPath(filepath.Join("in", "poll.xml"), "", ".json"))
	assert.Equal(t, filepath.Join("out", "poll.dot"), outputPath(filepath.Join("in", "poll.xml"), "out", ".dot"))
	assert.Equal(t, filepath.Join("out", "poll.v2.json"), outputPath("poll.v2.xml", "out", ".json"))
}
