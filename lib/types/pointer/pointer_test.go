package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTo(t *testing.T) {
	p := To(uint16(443))
	assert.Equal(t, uint16(443), *p)
}

func TestValueOr(t *testing.T) {
	assert.Equal(t, "a", ValueOr(To("a"), "b"))
	assert.Equal(t, "b", ValueOr[string](nil, "b"))
}
