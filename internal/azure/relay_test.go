package azure

import (
	"testing"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/stretchr/testify/require"

	"github.com/rbright/basket/internal/session"
)

type fakeListener struct {
	batches [][]session.Segment
	errors  []string
	ends    int
}

func (f *fakeListener) OnResults(segments []session.Segment) { f.batches = append(f.batches, segments) }
func (f *fakeListener) OnError(reason string)                { f.errors = append(f.errors, reason) }
func (f *fakeListener) OnEnd()                               { f.ends++ }

func TestRelayMapsRecognitionEvents(t *testing.T) {
	listener := &fakeListener{}
	activity := 0
	r := &relay{interim: true}
	r.attach(listener)
	r.onActivity(func() { activity++ })
	run := r.begin()

	r.recognizing(run, "add two")
	r.recognizing(run, "   ")
	r.recognized(run, common.RecognizedSpeech, "Add 2 apples.")
	r.recognized(run, common.NoMatch, "")

	require.Equal(t, [][]session.Segment{
		{{Text: "add two"}},
		{{Text: "Add 2 apples.", Final: true}},
	}, listener.batches)
	require.Equal(t, 3, activity)
}

func TestRelaySkipsInterimsWhenDisabled(t *testing.T) {
	listener := &fakeListener{}
	r := &relay{}
	r.attach(listener)
	run := r.begin()

	r.recognizing(run, "add")
	r.recognized(run, common.RecognizedSpeech, "add milk")
	require.Len(t, listener.batches, 1)
	require.True(t, listener.batches[0][0].Final)
}

func TestRelayCancellation(t *testing.T) {
	tests := []struct {
		name       string
		reason     common.CancellationReason
		details    string
		wantErrors []string
		wantEnds   int
	}{
		{
			name:       "error",
			reason:     common.Error,
			details:    "Connection was closed by the remote host.\nError code: 1007",
			wantErrors: []string{"Connection was closed by the remote host."},
		},
		{name: "end of stream", reason: common.EndOfStream, wantEnds: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			listener := &fakeListener{}
			r := &relay{interim: true}
			r.attach(listener)
			run := r.begin()

			r.canceled(run, tc.reason, tc.details)
			// SessionStopped follows every cancellation.
			r.ended(run)

			require.Equal(t, tc.wantErrors, listener.errors)
			require.Equal(t, tc.wantEnds, listener.ends)
		})
	}
}

func TestRelayReportsOneEndPerRun(t *testing.T) {
	listener := &fakeListener{}
	r := &relay{interim: true}
	r.attach(listener)

	first := r.begin()
	r.ended(first)
	r.ended(first)
	require.Equal(t, 1, listener.ends)

	second := r.begin()
	r.ended(first)
	r.canceled(first, common.Error, "late")
	r.recognized(first, common.RecognizedSpeech, "stale")
	require.Equal(t, 1, listener.ends)
	require.Empty(t, listener.errors)
	require.Empty(t, listener.batches)

	r.recognized(second, common.RecognizedSpeech, "fresh")
	r.ended(second)
	require.Equal(t, [][]session.Segment{{{Text: "fresh", Final: true}}}, listener.batches)
	require.Equal(t, 2, listener.ends)
}

func TestRelayDetachedDropsEvents(t *testing.T) {
	listener := &fakeListener{}
	r := &relay{interim: true}
	r.attach(listener)
	r.attach(nil)
	run := r.begin()

	r.recognizing(run, "hello")
	r.recognized(run, common.RecognizedSpeech, "hello")
	r.canceled(run, common.Error, "boom")
	r.ended(run)

	require.Empty(t, listener.batches)
	require.Empty(t, listener.errors)
	require.Zero(t, listener.ends)
}

func TestCancelReasonBlankDetails(t *testing.T) {
	require.Empty(t, cancelReason("  "))
}
