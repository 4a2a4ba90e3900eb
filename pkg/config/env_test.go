package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsProductionLike(t *testing.T) {
	assert.True(t, IsProductionLike(EnvProduction))
	assert.True(t, IsProductionLike(EnvStaging))
	assert.False(t, IsProductionLike(EnvDevelopment))
	assert.False(t, IsProductionLike(""))
	assert.False(t, IsProductionLike("Production"))
}
