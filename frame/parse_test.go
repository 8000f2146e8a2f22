package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/treewire/errors"
)

func TestParse_Fields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "simple three fields",
			raw:  "update|content|<p>Hi</p>",
			want: []string{"update", "content", "<p>Hi</p>"},
		},
		{
			name: "escaped separator stays literal",
			raw:  "update|content|~<p>a|b</p>~",
			want: []string{"update", "content", "<p>a|b</p>"},
		},
		{
			name: "escape in the middle of a field",
			raw:  "attr|box|data-x|~1|2~",
			want: []string{"attr", "box", "data-x", "1|2"},
		},
		{
			name: "trailing separator yields empty field",
			raw:  "remove|ghost|",
			want: []string{"remove", "ghost", ""},
		},
		{
			name: "single field no separators",
			raw:  "ping",
			want: []string{"ping"},
		},
		{
			name: "empty input is one empty field",
			raw:  "",
			want: []string{""},
		},
		{
			name: "extras pass through",
			raw:  "animate|box|fade|2000|ease-in|100",
			want: []string{"animate", "box", "fade", "2000", "ease-in", "100"},
		},
		{
			name: "consecutive escapes collapse",
			raw:  "update|content|~~x",
			want: []string{"update", "content", "x"},
		},
		{
			name: "unterminated escape swallows separators",
			raw:  "update|content|~a|b",
			want: []string{"update", "content", "a|b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_CustomEscapeChar(t *testing.T) {
	got, err := Parse("update|content|^<p>a|b</p>^", Options{EscapeChar: '^'})
	require.NoError(t, err)
	assert.Equal(t, []string{"update", "content", "<p>a|b</p>"}, got)
}

func TestParse_SizeBoundary(t *testing.T) {
	raw := "update|content|" + strings.Repeat("x", 10)
	opts := Options{MaxMessageSize: len(raw)}

	// Exactly at the limit succeeds.
	_, err := Parse(raw, opts)
	assert.NoError(t, err)

	// One byte over fails before any scan.
	_, err = Parse(raw+"x", opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSizeExceeded)
}

func TestParse_PartsBoundary(t *testing.T) {
	opts := Options{MaxParts: 4}

	// Exactly MaxParts fields succeeds.
	got, err := Parse("a|b|c|d", opts)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	// One more field fails.
	_, err = Parse("a|b|c|d|e", opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTooManyParts)
}

func TestParse_PartsShortCircuit(t *testing.T) {
	// Adversarial input: the part limit must trip during the scan, not
	// after accumulating every field.
	raw := strings.Repeat("|", 100000)
	_, err := Parse(raw, Options{MaxParts: 8})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTooManyParts)
}

func TestParse_Idempotent(t *testing.T) {
	raw := "update|content|plain text"
	first, err := Parse(raw, Options{})
	require.NoError(t, err)
	second, err := Parse(raw, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild(t *testing.T) {
	assert.Equal(t, "update|content|<p>Hi</p>", Build("update", "content", "<p>Hi</p>"))
	assert.Equal(t, "animate|box|fade|2000|linear", Build("animate", "box", "fade", "2000", "linear"))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "~a|b~", Escape("a|b", 0))
	assert.Equal(t, "^a|b^", Escape("a|b", '^'))
}

func TestBuildEscaped_RoundTrip(t *testing.T) {
	payload := "<p>a|b</p>"
	raw := BuildEscaped(0, "update", "content", payload, "x", "y")

	fields, err := Parse(raw, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"update", "content", payload, "x", "y"}, fields)
}

func TestFromFields(t *testing.T) {
	t.Run("well-formed", func(t *testing.T) {
		fr, err := FromFields([]string{"update", "content", "<p>Hi</p>", "extra"})
		require.NoError(t, err)
		assert.Equal(t, "update", fr.Verb)
		assert.Equal(t, "content", fr.Target)
		assert.Equal(t, "<p>Hi</p>", fr.Payload)
		assert.Equal(t, []string{"extra"}, fr.Extras)
	})

	t.Run("short frame", func(t *testing.T) {
		_, err := FromFields([]string{"update", "content"})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrShortFrame)
	})

	t.Run("fields round-trips", func(t *testing.T) {
		fields := []string{"attr", "box", "data-x", "1", "2"}
		fr, err := FromFields(fields)
		require.NoError(t, err)
		assert.Equal(t, fields, fr.Fields())
	})
}

func TestFrame_Extra(t *testing.T) {
	fr := Frame{Extras: []string{"500", "", "ease"}}
	assert.Equal(t, "500", fr.Extra(0, "1000"))
	assert.Equal(t, "def", fr.Extra(1, "def"))
	assert.Equal(t, "ease", fr.Extra(2, "linear"))
	assert.Equal(t, "none", fr.Extra(3, "none"))
}
