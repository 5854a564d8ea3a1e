package actions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/nodectx"
	"github.com/PROACTIVA-US/VISLZR/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog_TOML(t *testing.T) {
	path := writeFile(t, "actions.toml", `
include_defaults = false

[[actions]]
id = "deploy"
label = "Deploy"
category = "integration"
priority = 40
handler = "placeholder"
requires_confirmation = true

  [[actions.rules]]
  field = "nodeType"
  operator = "equals"
  value = "SERVICE"

  [[actions.rules]]
  field = "label"
  operator = "matches"
  value = "^api-"
`)

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.False(t, cat.IncludeDefaults)
	require.Len(t, cat.Actions, 1)

	d := cat.Actions[0]
	assert.Equal(t, "deploy", d.ID)
	assert.Equal(t, CategoryIntegration, d.Category)
	assert.Equal(t, 40, d.Priority)
	assert.True(t, d.RequiresConfirmation)
	require.Len(t, d.Rules, 2)
	assert.Equal(t, rules.FieldNodeType, d.Rules[0].Field)
	assert.Equal(t, rules.OpMatches, d.Rules[1].Operator)

	r, err := cat.Build(BuiltinHandlers())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count())

	svc := &model.Node{ID: "s", Label: "api-gateway", Type: model.NodeTypeService}
	assert.Len(t, r.ActionsForContext(svc, nodectx.Build(svc, nil)), 1)
}

func TestLoadCatalog_YAMLWithDefaults(t *testing.T) {
	path := writeFile(t, "actions.yaml", `
actions:
  - id: archive
    label: Archive
    category: destructive
    priority: 50
    handler: placeholder
    rules:
      - field: status
        operator: equals
        value: COMPLETED
`)

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.True(t, cat.IncludeDefaults)

	r, err := cat.Build(BuiltinHandlers())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultDescriptors())+1, r.Count())
	all := r.All()
	assert.Equal(t, "archive", all[len(all)-1].ID)
}

func TestCatalogBuild_UnknownHandler(t *testing.T) {
	cat := &Catalog{Actions: []*Descriptor{{ID: "x", Handler: "teleport"}}}
	_, err := cat.Build(BuiltinHandlers())
	assert.ErrorIs(t, err, ErrUnknownHandler)
}

func TestCatalogBuild_DuplicateOfDefault(t *testing.T) {
	cat := &Catalog{IncludeDefaults: true, Actions: []*Descriptor{{ID: "ask-ai", Handler: HandlerPlaceholder}}}
	_, err := cat.Build(BuiltinHandlers())
	assert.ErrorIs(t, err, ErrDuplicateAction)
}

func TestLoadCatalog_UnsupportedExtension(t *testing.T) {
	_, err := LoadCatalog("actions.ini")
	assert.Error(t, err)
}
