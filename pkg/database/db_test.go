package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "postgres://*****:*****@db:5432/scores", MaskDSN("postgres://user:pw@db:5432/scores"))
	assert.Equal(t, "postgres://db:5432/scores", MaskDSN("postgres://db:5432/scores"))
	assert.Equal(t, "postgres://user@db/scores", MaskDSN("postgres://user@db/scores"))
	assert.Equal(t, "not-a-url", MaskDSN("not-a-url"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}
