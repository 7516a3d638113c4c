package locale

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromSynonym(t *testing.T) {
	tests := []struct {
		word string
		want Tag
	}{
		{word: "hindi", want: HindiIN},
		{word: "hi", want: HindiIN},
		{word: "hi-in", want: HindiIN},
		{word: " Hindi ", want: HindiIN},
		{word: "english", want: EnglishUS},
		{word: "en", want: EnglishUS},
		{word: "en-us", want: EnglishUS},
		{word: "klingon", want: Default},
		{word: "", want: Default},
	}

	for _, tc := range tests {
		t.Run(tc.word, func(t *testing.T) {
			require.Equal(t, tc.want, FromSynonym(tc.word))
		})
	}
}

func TestParseCanonicalizes(t *testing.T) {
	tag, err := Parse("hi-in")
	require.NoError(t, err)
	require.Equal(t, HindiIN, tag)

	tag, err = Parse("en_us")
	require.NoError(t, err)
	require.Equal(t, EnglishUS, tag)
}

func TestParseRejectsUnknownAndInvalid(t *testing.T) {
	_, err := Parse("fr-FR")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported language")

	_, err = Parse("   ")
	require.Error(t, err)

	_, err = Parse("not a tag!")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid language tag")
}

func TestKnownReturnsCopy(t *testing.T) {
	tags := Known()
	require.Equal(t, []Tag{EnglishUS, HindiIN}, tags)
	tags[0] = "xx"
	require.Equal(t, EnglishUS, Known()[0])
	require.True(t, Default.Supported())
	require.False(t, Tag("fr-FR").Supported())
}

func TestResolve(t *testing.T) {
	tag, err := Resolve("Hindi")
	require.NoError(t, err)
	require.Equal(t, HindiIN, tag)

	tag, err = Resolve("en_us")
	require.NoError(t, err)
	require.Equal(t, EnglishUS, tag)

	_, err = Resolve("klingon")
	require.Error(t, err)

	_, err = Resolve("fr-FR")
	require.ErrorContains(t, err, "unsupported language")
}
