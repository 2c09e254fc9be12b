package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuszelenak/trojsten-graph/domain"
)

func TestReadDump(t *testing.T) {
	dir := t.TempDir()

	yamlDump := filepath.Join(dir, "dump.yaml")
	require.NoError(t, os.WriteFile(yamlDump, []byte(`
- model: graph.group
  pk: 1
  fields:
    name: KSP
    category: S
- model: graph.person
  pk: 4
  fields:
    name: Anna
    surname: K
    sex: F
    birthDate: "1995-04-00"
    visible: true
- model: graph.event
  pk: 9
  fields:
    personFrom: 4
    personTo: 5
    date: "2014-00-00"
    type: DAT
    visible: true
`), 0o600))

	dump, err := readDump(yamlDump)
	require.NoError(t, err)
	require.Len(t, dump, 3)
	assert.Equal(t, "KSP", dump[0].Fields.Name)
	assert.Equal(t, "1995-04-00", dump[1].Fields.BirthDate)
	assert.Equal(t, uint(5), dump[2].Fields.PersonTo)
	assert.Len(t, dump.Of(domain.DumpPerson), 1)

	jsonDump := filepath.Join(dir, "dump.json")
	require.NoError(t, os.WriteFile(jsonDump, []byte(`[{"model":"graph.membership","pk":1,"fields":{"person":4,"group":1,"startDate":"2010-09-00"}}]`), 0o600))

	dump, err = readDump(jsonDump)
	require.NoError(t, err)
	require.Len(t, dump, 1)
	assert.Equal(t, uint(1), dump[0].Fields.Group)
	assert.Equal(t, "2010-09-00", dump[0].Fields.StartDate)

	_, err = readDump(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCommandsAreRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "derive-family", "generate-management", "invite-codes", "import"} {
		assert.True(t, names[want], want)
	}
}
