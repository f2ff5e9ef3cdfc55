package dto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	secretsService "github.com/allisson/secrets/internal/secrets/service"
)

func TestMapVersionResultToResponse(t *testing.T) {
	result := &secretsService.VersionResult{
		Name:       "db-password",
		VersionTag: "v-1",
		Value:      []byte("hunter2"),
	}

	resp := MapVersionResultToResponse(result)

	assert.Equal(t, "db-password", resp.Name)
	assert.Equal(t, "v-1", resp.VersionTag)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hunter2")), resp.Value)
}
