package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hashed)

	assert.True(t, CheckPasswordHash("s3cret-password", hashed))
	assert.False(t, CheckPasswordHash("wrong-password", hashed))
}

func TestHashPasswordSalted(t *testing.T) {
	// bcrypt 自带随机盐，同一密码两次哈希结果不同
	first, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	second, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
