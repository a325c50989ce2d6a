package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dataspace-connector/connector/internal/dsp"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Setenv("STORE", "memory")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func envelope(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{
		"id":        uuid.NewString(),
		"type":      dsp.TypeCatalogQuery,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"issuer":    "did:web:consumer.example",
		"data":      map[string]interface{}{},
	})
	require.NoError(t, err)
	return string(b)
}

func TestValidate_ValidFromStdin(t *testing.T) {
	out, err := run(t, envelope(t), "validate")

	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidate_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"catalog:query"}`), 0o600))

	out, err := run(t, "", "validate", path)

	assert.ErrorIs(t, err, errInvalidMessage)
	assert.Contains(t, out, "invalid")
	assert.Contains(t, out, "/issuer")
}

func TestValidate_JSONOutput(t *testing.T) {
	out, err := run(t, `{}`, "validate", "--json", "-")

	assert.ErrorIs(t, err, errInvalidMessage)
	var result dsp.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestGraph(t *testing.T) {
	out, err := run(t, "", "graph", "--json")

	require.NoError(t, err)
	var graph map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &graph))
	assert.Equal(t, []string{"AGREED", "OFFERED", "TERMINATED"}, graph["ACCEPTED"])
	assert.Empty(t, graph["FINALIZED"])
}

func TestGraph_Table(t *testing.T) {
	out, err := run(t, "", "graph")

	require.NoError(t, err)
	assert.Contains(t, out, "REQUESTED")
	assert.Contains(t, out, "OFFERED, TERMINATED")
}

func TestSeed_MemoryStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
participants:
  - did: did:web:provider.example
    name: Provider
assets:
  - externalId: urn:asset:one
    owner: did:web:provider.example
    assetType: DATASET
    title: One
`), 0o600))

	out, err := run(t, "", "seed", "--file", path)

	require.NoError(t, err)
	assert.Contains(t, out, "participants: 1 created, 0 skipped")
	assert.Contains(t, out, "assets: 1 created, 0 skipped")
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	_, err := run(t, "", "migrate")

	assert.ErrorContains(t, err, "postgres")
}

func TestHashToken(t *testing.T) {
	out, err := run(t, "s3cret\n", "hash-token")

	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestHashToken_Empty(t *testing.T) {
	_, err := run(t, "", "hash-token")

	assert.Error(t, err)
}
