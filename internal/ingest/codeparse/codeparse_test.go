package codeparse

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/types"
)

const sampleSource = `package sample

import (
	"fmt"
)

type Greeter struct {
	Name string
}

func (g Greeter) Greet() string {
	return fmt.Sprintf("hello %s", g.Name)
}

func NewGreeter(name string) Greeter {
	return Greeter{Name: name}
}
`

func TestExtract_FindsFunctionsTypesAndImports(t *testing.T) {
	events, err := Extract(context.Background(), "sample.go", []byte(sampleSource))
	require.NoError(t, err)

	var funcs, types_, imports int
	names := map[string]bool{}
	for _, e := range events {
		switch e.EventType {
		case types.EventCodeFunction:
			funcs++
			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal(e.Data, &payload))
			names[payload["name"].(string)] = true
		case types.EventCodeType:
			types_++
		case types.EventCodeImport:
			imports++
		}
	}

	require.Equal(t, 2, funcs)
	require.Equal(t, 1, types_)
	require.Equal(t, 1, imports)
	require.True(t, names["Greet"])
	require.True(t, names["NewGreeter"])
}
