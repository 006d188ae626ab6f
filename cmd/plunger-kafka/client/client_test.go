package client

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactories(t *testing.T) {
	logger := log.New()
	for _, name := range append([]string{""}, Names...) {
		cf, err := ConsumerFactory(name, "", logger)
		require.NoError(t, err, name)
		assert.NotNil(t, cf)

		pf, err := ProducerFactory(name, "", logger)
		require.NoError(t, err, name)
		assert.NotNil(t, pf)
	}

	_, err := ConsumerFactory("franz", "", logger)
	assert.Error(t, err)
	_, err = ProducerFactory("franz", "", logger)
	assert.Error(t, err)
}

func TestSilentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	logger.SetLevel(log.InfoLevel)

	l := &SilentLogger{logger}
	l.Infof("joined group %s", "g")
	assert.Empty(t, buf.String())

	l.Errorf("lost connection")
	assert.Contains(t, buf.String(), "lost connection")

	logger.SetLevel(log.DebugLevel)
	l.Infof("joined group %s", "g")
	assert.Contains(t, buf.String(), "joined group g")
}
