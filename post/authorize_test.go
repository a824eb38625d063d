package post

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reelfeed/reelfeed/account"
)

func TestAuthorize(t *testing.T) {
	owner := account.NewID()
	other := account.NewID()

	assert.Equal(t, Allowed, Authorize(owner, owner))
	assert.Equal(t, Denied, Authorize(other, owner))
	assert.Equal(t, Denied, Authorize("", owner), "anonymous caller never owns anything")
	assert.Equal(t, Denied, Authorize("", ""), "two empty ids must not be treated as equal")
	assert.Equal(t, Denied, Authorize(owner, ""))
}
