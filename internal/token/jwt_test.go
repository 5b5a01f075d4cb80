package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_GenerateAndParse(t *testing.T) {
	j := NewJWT("testsecret")

	tokenString, err := j.Generate("admin")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	subject, err := j.Parse(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestJWT_Parse_WrongSecret(t *testing.T) {
	tokenString, err := NewJWT("secret-a").Generate("admin")
	require.NoError(t, err)

	_, err = NewJWT("secret-b").Parse(tokenString)
	require.Error(t, err)
}

func TestJWT_Parse_Garbage(t *testing.T) {
	_, err := NewJWT("testsecret").Parse("not-a-token")
	require.Error(t, err)
}
