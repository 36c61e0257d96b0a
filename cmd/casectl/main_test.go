package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/harshnakad-cyber/Finastra/internal/casestudies"
	"github.com/harshnakad-cyber/Finastra/internal/validation"
)

func fixturesPath(t *testing.T) string {
	t.Helper()
	return filepath.Join("..", "..", "fixtures", "case_studies.yaml")
}

func TestParseSeedFixtures(t *testing.T) {
	f, err := os.Open(fixturesPath(t))
	require.NoError(t, err)
	defer f.Close()

	entries, err := parseSeed(f)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "Alpha Cooperative Bank", entries[0].ClientName)
	assert.Equal(t, []string{"EC2", "RDS", "S3"}, entries[0].AWSServices)
	assert.Nil(t, entries[3].MRR)
}

func TestParseSeedRejectsUnknownKeys(t *testing.T) {
	_, err := parseSeed(strings.NewReader("case_studies:\n  - heading: x\n    colour: red\n"))
	assert.Error(t, err)

	entries, err := parseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSeedIsIdempotentAndReportsInvalid(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := casestudies.NewService(casestudies.NewMemoryRepository(), validation.New(), nil, log)

	f, err := os.Open(fixturesPath(t))
	require.NoError(t, err)
	entries, err := parseSeed(f)
	f.Close()
	require.NoError(t, err)
	entries = append(entries, seedEntry{Heading: "Broken entry"})

	report, err := seed(ctx, svc, entries, log)
	require.NoError(t, err)
	assert.Len(t, report.Created, 4)
	assert.Contains(t, report.Invalid["Broken entry"], "Client Name is required")

	report, err = seed(ctx, svc, entries[:4], log)
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Len(t, report.Skipped, 4)
}

func TestListFlagsState(t *testing.T) {
	state, err := listFlags{
		search:      "bank",
		city:        []string{"Pune", "Mumbai"},
		awsServices: []string{"EC2"},
		mrrMin:      100,
		mrrMax:      casestudies.MRRCeiling,
	}.state()
	require.NoError(t, err)
	assert.Equal(t, "bank", state.Search)
	assert.Equal(t, []string{"Pune", "Mumbai"}, state.City)
	assert.Equal(t, []string{"EC2"}, state.AWSServices)
	assert.Equal(t, casestudies.MRRRange{100, casestudies.MRRCeiling}, state.MRRRange)
}

func TestSeedAndListCommands(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"seed", "--file", fixturesPath(t)})
	require.NoError(t, root.Execute())

	var report seedReport
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))
	assert.Len(t, report.Created, 4)

	// the memory store does not outlive a command
	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"list", "--city", "Pune", "-o", "json"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"count": 0`)
}

func TestWriteOutputRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, writeOutput(io.Discard, "xml", struct{}{}))
}
