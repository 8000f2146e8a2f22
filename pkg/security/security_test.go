package security

import (
	"crypto/tls"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/treewire/errors"
)

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"simple", "content", true},
		{"with underscore and hyphen", "main_panel-2", true},
		{"digits only", "42", true},
		{"empty", "", false},
		{"path traversal", "../../etc", false},
		{"spaces", "a b", false},
		{"dots", "a.b", false},
		{"pipe", "a|b", false},
		{"at limit", strings.Repeat("a", MaxIdentifierLength), true},
		{"over limit", strings.Repeat("a", MaxIdentifierLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidIdentifier(tt.id))
		})
	}
}

func TestPayloadGuard_Disabled(t *testing.T) {
	g := NewPayloadGuard(8, false)
	assert.NoError(t, g.Check(strings.Repeat("x", 100)))

	var nilGuard *PayloadGuard
	assert.NoError(t, nilGuard.Check(`{"__proto__": 1}`))
}

func TestPayloadGuard_Size(t *testing.T) {
	g := NewPayloadGuard(16, true)
	assert.NoError(t, g.Check(`{"a": 1}`))

	err := g.Check(`{"a": "` + strings.Repeat("x", 32) + `"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPayloadTooLarge)
}

func TestPayloadGuard_ForbiddenKeys(t *testing.T) {
	g := NewPayloadGuard(0, true)

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"clean object", `{"name": "click", "detail": {"x": 1}}`, false},
		{"proto at top level", `{"__proto__": {"polluted": true}}`, true},
		{"constructor nested", `{"detail": {"constructor": {}}}`, true},
		{"prototype in array element", `[{"prototype": 1}]`, true},
		{"plain text passes through", "just a string", false},
		{"invalid json passes through", "{not json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Check(tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrForbiddenKey)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStructured(t *testing.T) {
	assert.True(t, Structured(`{"a": 1}`))
	assert.True(t, Structured(`  [1, 2]`))
	assert.False(t, Structured("plain"))
	assert.False(t, Structured(""))
}

func TestTLSConfig_Validate(t *testing.T) {
	assert.NoError(t, TLSConfig{}.Validate())
	assert.NoError(t, TLSConfig{MinVersion: "1.3"}.Validate())
	assert.Error(t, TLSConfig{MinVersion: "1.1"}.Validate())
	assert.Error(t, TLSConfig{CertFile: "client.pem"}.Validate())
	assert.NoError(t, TLSConfig{CertFile: "client.pem", KeyFile: "client.key"}.Validate())
}

func TestTLSConfig_Load(t *testing.T) {
	t.Run("zero loads as nil", func(t *testing.T) {
		conf, err := TLSConfig{}.Load()
		require.NoError(t, err)
		assert.Nil(t, conf)
	})

	t.Run("flags map through", func(t *testing.T) {
		conf, err := TLSConfig{InsecureSkipVerify: true, MinVersion: "1.3"}.Load()
		require.NoError(t, err)
		require.NotNil(t, conf)
		assert.True(t, conf.InsecureSkipVerify)
		assert.Equal(t, uint16(tls.VersionTLS13), conf.MinVersion)
	})

	t.Run("missing CA file errors", func(t *testing.T) {
		_, err := TLSConfig{CAFiles: []string{"/nonexistent/ca.pem"}}.Load()
		assert.Error(t, err)
	})
}
