package domain

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationAnswerCoversEveryField(t *testing.T) {
	var app Application
	for _, f := range AnswerFields {
		require.True(t, app.SetAnswer(f, "v-"+f), f)
	}
	for _, f := range AnswerFields {
		assert.Equal(t, "v-"+f, app.Answer(f))
	}
	assert.Equal(t, "v-gpa", app.GPA)
	assert.Equal(t, "v-service_package", app.ServicePackage)
}

func TestApplicationSetAnswerUnknownField(t *testing.T) {
	var app Application
	assert.False(t, app.SetAnswer("status", "x"))
	assert.Empty(t, app.Answer("status"))
}

func TestNewApplicationID(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewApplicationID()
		require.Len(t, id, 8)
		_, err := hex.DecodeString(id)
		require.NoError(t, err)
		seen[id] = struct{}{}
	}
	assert.Greater(t, len(seen), 90)
}
