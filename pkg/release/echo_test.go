package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecute_Ping_ReturnsPong(t *testing.T) {
	assert.Equal(t, "pong", Execute("ping"))
}

func TestExecute_AnythingElse_Echoes(t *testing.T) {
	assert.Equal(t, "restart nginx", Execute("restart nginx"))
	assert.Equal(t, "", Execute(""))
}
