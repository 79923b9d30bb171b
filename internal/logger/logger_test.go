package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitLogger_Level(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, InitLogger("debug", "json").GetLevel())
	assert.Equal(t, zerolog.WarnLevel, InitLogger(" WARN ", "console").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, InitLogger("", "json").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, InitLogger("loud", "json").GetLevel())
}
