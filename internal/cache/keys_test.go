package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyScheme(t *testing.T) {
	assert.Equal(t, "renovation_detail:renovation_id=abc", RenovationDetailKey("abc"))
	assert.Equal(t, "renovation_list:list_type=active:date=2025-03-10", ActiveListKey("2025-03-10"))
	assert.Equal(t, "renovation_refuge:refuge_id=R1:active=active", RefugeListKey("R1", true))
	assert.Equal(t, "renovation_refuge:refuge_id=R1:active=all", RefugeListKey("R1", false))
}

func TestPrefixesCoverKeys(t *testing.T) {
	assert.True(t, strings.HasPrefix(ActiveListKey("2025-03-10"), ListPrefix()))
	assert.True(t, strings.HasPrefix(RefugeListKey("R1", true), RefugePrefix("R1")))
	assert.True(t, strings.HasPrefix(RefugeListKey("R1", false), RefugePrefix("R1")))

	// A refuge prefix must not swallow another refuge's keys.
	assert.False(t, strings.HasPrefix(RefugeListKey("R12", true), RefugePrefix("R1")))
}
