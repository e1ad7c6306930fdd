package filesan

import (
	"encoding/json"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode_Bits(t *testing.T) {
	assert.Equal(t, All, Unix|Windows|Mac)
	assert.False(t, All.Intersects(WindowsEnd))
	assert.False(t, Windows.Contains(WindowsEnd))

	assert.True(t, All.Contains(Windows))
	assert.True(t, All.Contains(Unix|Mac))
	assert.False(t, Unix.Contains(Unix|Mac))
	assert.True(t, Unix.Intersects(Unix|Mac))
	assert.False(t, None.Intersects(All))

	assert.Contains(t, []Mode{Unix, Windows, Mac}, System)
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{None, "None"},
		{Unix, "Unix"},
		{Windows, "Windows"},
		{Mac, "Mac"},
		{WindowsEnd, "WindowsEnd"},
		{All, "All"},
		{Unix | Windows, "Unix,Windows"},
		{All | WindowsEnd, "Unix,Windows,Mac,WindowsEnd"},
		{Mac | 0x100, "Mac,0x100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.String())
	}
}

func TestMode_Set(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", None},
		{"none", None},
		{"Unix", Unix},
		{"linux", Unix},
		{"WINDOWS", Windows},
		{"mac", Mac},
		{"macOS", Mac},
		{"darwin", Mac},
		{"all", All},
		{"system", System},
		{"unix, windows", Unix | Windows},
		{"windows,windowsend", Windows | WindowsEnd},
		{"0x3", Unix | Windows},
		{"4", Mac},
		{"Unix,Windows,Mac", All},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMode_SetError(t *testing.T) {
	m := Windows
	err := m.Set("unix,beos")
	require.ErrorIs(t, err, ErrUnknownMode)
	assert.Contains(t, err.Error(), `"beos"`)
	assert.Contains(t, err.Error(), "windowsend")
	assert.Equal(t, Windows, m, "mode must be untouched on error")
}

func TestMode_RoundTrip(t *testing.T) {
	for _, m := range []Mode{None, Unix, Windows, Mac, All, Unix | Mac, All | WindowsEnd} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestMode_PflagValue(t *testing.T) {
	var m Mode
	var _ pflag.Value = &m

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(&m, "mode", "target systems")
	require.NoError(t, fs.Parse([]string{"--mode", "windows,mac"}))
	assert.Equal(t, Windows|Mac, m)
	assert.Equal(t, "Mode", fs.Lookup("mode").Value.Type())
}

func TestMode_Text(t *testing.T) {
	type settings struct {
		Mode Mode `json:"mode"`
	}

	b, err := json.Marshal(settings{Mode: Unix | Windows})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"Unix,Windows"}`, string(b))

	var s settings
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"all"}`), &s))
	assert.Equal(t, All, s.Mode)
}
