package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetupWriter(t *testing.T) {
	original, level := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = original
		zerolog.SetGlobalLevel(level)
	}()

	var buf bytes.Buffer
	SetupWriter(&buf, "api", zerolog.WarnLevel)

	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"service":"api"`)
	assert.Contains(t, out, `"message":"shown"`)
}
