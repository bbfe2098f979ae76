package output

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/calckit/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{name: "auto on tty", mode: ModeAuto, isTTY: true, want: ModeText},
		{name: "auto piped", mode: ModeAuto, isTTY: false, want: ModeMarkdown},
		{name: "empty defaults to auto", mode: "", isTTY: false, want: ModeMarkdown},
		{name: "explicit text piped", mode: ModeText, isTTY: false, want: ModeText},
		{name: "explicit json on tty", mode: ModeJSON, isTTY: true, want: ModeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRenderer_FormatNumber(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		v    engine.Operand
		want string
	}{
		{name: "text integer grouping", mode: ModeText, v: engine.IntOperand(1234567), want: "1,234,567"},
		{name: "text small integer", mode: ModeText, v: engine.IntOperand(-6), want: "-6"},
		{name: "text decimal", mode: ModeText, v: engine.FloatOperand(98.60000000000001), want: "98.6"},
		{name: "text whole decimal", mode: ModeText, v: engine.FloatOperand(212), want: "212"},
		{name: "text zero", mode: ModeText, v: engine.FloatOperand(0), want: "0"},
		{name: "markdown no grouping", mode: ModeMarkdown, v: engine.IntOperand(1234567), want: "1234567"},
		{name: "markdown decimal", mode: ModeMarkdown, v: engine.FloatOperand(-17.7777777), want: "-17.777778"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, false)
			assert.Equal(t, tt.want, r.FormatNumber(tt.v))
		})
	}
}

func TestRenderer_SetPrecision(t *testing.T) {
	r, _, _ := newTestRenderer(ModeMarkdown, false)
	r.SetPrecision(2)
	assert.Equal(t, "-17.78", r.FormatNumber(engine.FloatOperand(-17.7777777)))
}

func TestRenderer_Header(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.Header(2, "Operations")
	assert.Equal(t, "## Operations\n", out.String())

	r, out, _ = newTestRenderer(ModeText, false)
	r.Header(1, "Operations")
	assert.Equal(t, "Operations\n", out.String())
	assert.False(t, ansiPattern.MatchString(out.String()), "no escape codes without a TTY")
}

func TestRenderer_Messages(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, false)

	r.Success("done")
	r.Muted("quiet")
	r.Warning("careful")
	r.Error("broken")

	assert.Equal(t, "done\nquiet\n", out.String())
	assert.Contains(t, errOut.String(), "Warning: careful")
	assert.Contains(t, errOut.String(), "Error: broken")
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]any{"result": engine.IntOperand(5)}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, float64(5), decoded["result"])
}

func TestRenderer_Table(t *testing.T) {
	headers := []string{"Celsius", "Fahrenheit"}
	rows := [][]string{{"0", "32"}, {"100", "212"}}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		r.Table(headers, rows)
		got := out.String()
		assert.Contains(t, got, "| Celsius | Fahrenheit |")
		assert.Contains(t, got, "| 100 | 212 |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		r.Table(headers, rows)
		got := out.String()
		assert.Contains(t, strings.ToUpper(got), "CELSIUS")
		assert.Contains(t, got, "212")
		assert.Contains(t, got, "┌")
	})
}

func TestMarkdownHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Sub", FormatHeader(3, "Sub"))
	assert.Equal(t, "- **Result:** 5", FormatKeyValue("Result", "5"))
}
