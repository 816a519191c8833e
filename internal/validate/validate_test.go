package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaido-san/jibie-ec/internal/validate"
)

func TestPostalCode(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"123-4567", true},
		{"1234567", true},
		{" 123-4567 ", true},
		{"12-34567", false},
		{"123-456", false},
		{"abcdefg", false},
		{"", false},
		{"123-45678", false},
	}
	for _, c := range cases {
		_, ok := validate.PostalCode(c.in)
		assert.Equal(t, c.ok, ok, "postal %q", c.in)
	}
}

func TestPhone(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"090-1234-5678", true},
		{"0312345678", true},
		{"03-1234-5678", true},
		{"1234567890", false},
		{"090-1234-5678-90", false},
		{"", false},
	}
	for _, c := range cases {
		_, ok := validate.Phone(c.in)
		assert.Equal(t, c.ok, ok, "phone %q", c.in)
	}
}

func TestQtyClamps(t *testing.T) {
	assert.Equal(t, 1, validate.Qty(""))
	assert.Equal(t, 1, validate.Qty("0"))
	assert.Equal(t, 1, validate.Qty("-3"))
	assert.Equal(t, 1, validate.Qty("abc"))
	assert.Equal(t, 3, validate.Qty("3"))
	assert.Equal(t, 50, validate.Qty("999"))
}

func TestName(t *testing.T) {
	_, ok := validate.Name("Taro Yamada")
	assert.True(t, ok)
	_, ok = validate.Name("   ")
	assert.False(t, ok)
}

func TestPassword(t *testing.T) {
	assert.True(t, validate.Password("Passw0rd!"))
	assert.False(t, validate.Password("short1!"))
	assert.False(t, validate.Password("alllowercase1!"))
	assert.False(t, validate.Password("NoDigits!!"))
}
