package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinUsesSingleSpace(t *testing.T) {
	t.Parallel()

	require.Equal(t, "add 2 apples", Join([]string{" add 2", "apples "}))
}

func TestJoinEmptyInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, Join(nil))
	require.Empty(t, Join([]string{"  ", "\n\t"}))
}

func TestJoinKeepsInternalSpacing(t *testing.T) {
	t.Parallel()

	require.Equal(t, "olive oil please", Join([]string{"olive oil", "", "please"}))
}

func TestAssembleSplitsInterimsFromFinals(t *testing.T) {
	t.Parallel()

	batch := Assemble([]Segment{
		{Text: "add"},
		{Text: "add two", Final: true},
		{Text: "add two app"},
		{Text: "apples", Final: true},
	})
	require.Equal(t, []string{"add", "add two app"}, batch.Interims)
	require.Equal(t, "add two apples", batch.Final)
}

func TestAssembleInterimOnly(t *testing.T) {
	t.Parallel()

	batch := Assemble([]Segment{{Text: "remo"}, {Text: " "}})
	require.Equal(t, []string{"remo", " "}, batch.Interims)
	require.Empty(t, batch.Final)
}
