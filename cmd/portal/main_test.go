package main

import (
	"bytes"
	"testing"

	"github.com/RigelNana/vitalicio/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairSQLPrintsEmbeddedScript(t *testing.T) {
	var out bytes.Buffer
	cmdRepairSQL.SetOut(&out)
	require.NoError(t, cmdRepairSQL.RunE(cmdRepairSQL, nil))

	assert.Equal(t, database.RepairSQL, out.String())
	assert.Contains(t, out.String(), "covers")
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, newLogger("loud").GetLevel())
}
