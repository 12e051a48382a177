package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotenvLogsMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	hook := test.NewGlobal()
	t.Cleanup(hook.Reset)
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() { logrus.SetLevel(level) })

	loadDotenv()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Contains(t, entry.Message, "no .env file loaded")
	_, isErr := entry.Data[logrus.ErrorKey].(error)
	assert.True(t, isErr)
}
