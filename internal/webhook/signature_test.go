package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"object":"whatsapp_business_account"}`)
	header := Sign("s3cret", body)

	assert.True(t, VerifySignature("s3cret", body, header))
	assert.False(t, VerifySignature("other", body, header))
	assert.False(t, VerifySignature("s3cret", []byte("{}"), header))
	assert.False(t, VerifySignature("s3cret", body, "sha1=abc"))
	assert.False(t, VerifySignature("s3cret", body, "sha256=zz"))
}
