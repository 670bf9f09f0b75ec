package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogicSources(t *testing.T) {
	got, err := ParseLogicSources(" Logic B = logic b.csv ; Logic A=/abs/logic a.xlsx;", "data")
	require.NoError(t, err)
	assert.Equal(t, []LogicSourceConfig{
		{Logic: "Logic B", Path: filepath.Join("data", "logic b.csv")},
		{Logic: "Logic A", Path: "/abs/logic a.xlsx"},
	}, got)

	_, err = ParseLogicSources("Logic A", "data")
	assert.Error(t, err)

	_, err = ParseLogicSources("Logic A=a.csv;Logic A=b.csv", "data")
	assert.Error(t, err)

	got, err = ParseLogicSources("", "data")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseLogicColumns(t *testing.T) {
	sources := []LogicSourceConfig{{Logic: "Logic A", Path: "a.csv"}, {Logic: "Logic B", Path: "b.csv"}}
	err := ParseLogicColumns("Logic A: New RL Qty = RL Qty Final ;Logic A:Landed DOI=Landed;", sources)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"New RL Qty": "RL Qty Final", "Landed DOI": "Landed"}, sources[0].Columns)
	assert.Nil(t, sources[1].Columns)

	require.NoError(t, ParseLogicColumns("", sources))

	assert.Error(t, ParseLogicColumns("Logic Z:New RL Qty=x", sources), "unknown logic")
	assert.Error(t, ParseLogicColumns("Logic B:New RL Qty", sources))
	assert.Error(t, ParseLogicColumns("Logic A:New RL Qty=again", sources), "duplicate metric")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "planning", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=planning sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://u:p@db/planning"
	assert.Equal(t, "postgres://u:p@db/planning", cfg.DSN())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Logic A", "Logic B"}, splitList(" Logic A, ,Logic B "))
	assert.Empty(t, splitList(""))
}
