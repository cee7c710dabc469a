package email

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridProvider_Build(t *testing.T) {
	provider := NewSendGridProvider("SG.test", "reports@example.com", "Driver Completion Report")
	msg := testMessage()

	built := provider.build(msg)

	assert.Equal(t, msg.Subject, built.Subject)
	assert.Equal(t, "reports@example.com", built.From.Address)
	require.Len(t, built.Personalizations, 1)
	require.Len(t, built.Personalizations[0].To, 2)
	assert.Equal(t, "dispatch@example.com", built.Personalizations[0].To[1].Address)

	require.Len(t, built.Content, 1)
	assert.Equal(t, "text/plain", built.Content[0].Type)

	require.Len(t, built.Attachments, 1)
	decoded, err := base64.StdEncoding.DecodeString(built.Attachments[0].Content)
	require.NoError(t, err)
	assert.Equal(t, msg.Attachments[0].Content, decoded)
	assert.Equal(t, msg.Attachments[0].Filename, built.Attachments[0].Filename)
	assert.Equal(t, "attachment", built.Attachments[0].Disposition)
}
