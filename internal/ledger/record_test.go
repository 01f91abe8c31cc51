package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_OwnedBy(t *testing.T) {
	r := Record{OwnerID: "S1"}

	assert.True(t, r.OwnedBy("S1"))
	assert.False(t, r.OwnedBy("S2"))
	assert.False(t, r.OwnedBy(""))
	assert.False(t, Record{}.OwnedBy(""), "an empty identity never owns anything")
}

func TestPatch_Normalize(t *testing.T) {
	name := "  Alicia "
	blank := " "

	p, missing := Patch{Name: &name}.normalize()
	assert.Empty(t, missing)
	assert.Equal(t, "Alicia", *p.Name)
	assert.Nil(t, p.Topic)

	_, missing = Patch{Name: &blank, Topic: &blank}.normalize()
	assert.Equal(t, []string{"name", "topic"}, missing)

	assert.True(t, Patch{}.Empty())
}

func TestMatcher(t *testing.T) {
	r := Record{ID: "STU-12", Name: "Alice", Topic: "Linear Algebra"}

	assert.True(t, NewMatcher("").Match(r))
	assert.True(t, NewMatcher("ALGEBRA").Match(r))
	assert.True(t, NewMatcher("alice linear").Match(r), "name and topic are joined with a space")
	assert.True(t, NewMatcher("stu-1").Match(r))
	assert.False(t, NewMatcher("bob").Match(r))
}
