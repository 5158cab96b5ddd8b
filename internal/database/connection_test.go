package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Error, logLevel("error"))
	assert.Equal(t, logger.Warn, logLevel("warn"))
	assert.Equal(t, logger.Info, logLevel("info"))
	assert.Equal(t, logger.Silent, logLevel("silent"))
	assert.Equal(t, logger.Silent, logLevel("verbose"))
}
