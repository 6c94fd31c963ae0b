package textenc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/colprofile/pkg/textenc"
)

func mustEncode(t *testing.T, name, text string) []byte {
	t.Helper()

	enc, err := textenc.Lookup(name)
	require.NoError(t, err)

	raw, err := enc.Encode(text)
	require.NoError(t, err)

	return raw
}

func TestResolver_EarliestSuccessWins(t *testing.T) {
	t.Parallel()

	// Plain ASCII decodes under every candidate.
	raw := []byte("a,b,c\n1,2,3\n")

	orders := [][]string{
		{"utf-8", "euc-kr", "latin-1"},
		{"latin-1", "utf-8", "euc-kr"},
		{"euc-kr", "latin-1", "utf-8"},
	}

	for _, order := range orders {
		resolver, err := textenc.NewResolver(order)
		require.NoError(t, err)

		res, err := resolver.Resolve(raw, "")
		require.NoError(t, err)
		assert.Equal(t, order[0], res.Encoding)
	}
}

func TestResolver_SkipsFailingCandidates(t *testing.T) {
	t.Parallel()

	raw := mustEncode(t, "euc-kr", "지역\n서울\n")

	resolver, err := textenc.NewResolver(textenc.DefaultCandidates)
	require.NoError(t, err)

	res, err := resolver.Resolve(raw, "")
	require.NoError(t, err)

	assert.Equal(t, "euc-kr", res.Encoding)
	assert.Equal(t, "지역\n서울\n", res.Text)
	assert.Contains(t, res.Text, "서울")

	require.Len(t, res.Failed, 2)
	assert.Equal(t, "utf-8", res.Failed[0].Encoding)
	assert.Equal(t, "utf-8-sig", res.Failed[1].Encoding)
	assert.ErrorIs(t, res.Failed[0].Err, textenc.ErrInvalidSequence)
	assert.Nil(t, res.Detected)
}

func TestResolver_AllFail(t *testing.T) {
	t.Parallel()

	candidates := []string{"utf-8", "utf-8-sig", "euc-kr"}

	resolver, err := textenc.NewResolver(candidates)
	require.NoError(t, err)

	_, err = resolver.Resolve([]byte{0x80, 0xFF}, "")
	require.Error(t, err)

	var decodeErr *textenc.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, candidates, decodeErr.Tried())
	assert.ErrorIs(t, err, textenc.ErrInvalidSequence)

	for _, name := range candidates {
		assert.Contains(t, err.Error(), name)
	}
}

func TestResolver_EmptyInput(t *testing.T) {
	t.Parallel()

	resolver, err := textenc.NewResolver(textenc.DefaultCandidates)
	require.NoError(t, err)

	res, err := resolver.Resolve(nil, "")
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Equal(t, "utf-8", res.Encoding)
}

func TestNewResolver_Validation(t *testing.T) {
	t.Parallel()

	_, err := textenc.NewResolver(nil)
	require.ErrorIs(t, err, textenc.ErrNoCandidates)

	_, err = textenc.NewResolver([]string{"utf-8", "nope"})
	require.ErrorIs(t, err, textenc.ErrUnknownEncoding)

	resolver, err := textenc.NewResolver([]string{"utf8", "UTF-8", "latin1", "latin-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"utf-8", "latin-1"}, resolver.Candidates())
}

func TestResolver_DetectorCharsetMovesFirst(t *testing.T) {
	t.Parallel()

	raw := mustEncode(t, "euc-kr", "업태\n음식점\n")

	plain, err := textenc.NewResolver([]string{"latin-1", "euc-kr"})
	require.NoError(t, err)

	res, err := plain.Resolve(raw, "text/csv; charset=euc-kr")
	require.NoError(t, err)
	assert.Equal(t, "latin-1", res.Encoding)

	detecting, err := textenc.NewResolver([]string{"latin-1", "euc-kr"}, textenc.WithDetector())
	require.NoError(t, err)

	res, err = detecting.Resolve(raw, "text/csv; charset=euc-kr")
	require.NoError(t, err)
	assert.Equal(t, "euc-kr", res.Encoding)
	assert.Equal(t, "업태\n음식점\n", res.Text)
	require.NotNil(t, res.Detected)
	assert.True(t, res.Detected.Certain)
}

func TestResolver_UncertainDetectionKeepsOrder(t *testing.T) {
	t.Parallel()

	resolver, err := textenc.NewResolver([]string{"latin-1", "utf-8"}, textenc.WithDetector())
	require.NoError(t, err)

	res, err := resolver.Resolve([]byte("a,b\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "latin-1", res.Encoding)
	require.NotNil(t, res.Detected)
	assert.False(t, res.Detected.Certain)
}

func TestDetect_BOM(t *testing.T) {
	t.Parallel()

	d := textenc.Detect([]byte{0xEF, 0xBB, 0xBF, 'a'}, "")
	assert.Equal(t, textenc.Detection{Encoding: "utf-8-sig", Certain: true}, d)

	resolver, err := textenc.NewResolver([]string{"utf-8", "latin-1"}, textenc.WithDetector())
	require.NoError(t, err)

	res, err := resolver.Resolve([]byte{0xEF, 0xBB, 0xBF, 'a'}, "")
	require.NoError(t, err)
	assert.Equal(t, "utf-8-sig", res.Encoding)
	assert.Equal(t, "a", res.Text)
}
