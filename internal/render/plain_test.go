package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainResponse(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPlain(&out, &errOut, 80)

	p.Response("hello world")
	assert.Equal(t, "hello world\n\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestPlainErrorGoesToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPlain(&out, &errOut, 80)

	p.Error("boom")
	assert.Empty(t, out.String())
	assert.Equal(t, "Error: boom\n", errOut.String())
}

func TestPlainQuestion(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPlain(&out, &errOut, 80)

	p.Question("Pick a node", "maintenance window", []string{"core1", "core2"})
	got := out.String()
	assert.Contains(t, got, "QUESTION: Pick a node")
	assert.Contains(t, got, "maintenance window")
	assert.Contains(t, got, "  1. core1\n")
	assert.Contains(t, got, "  2. core2\n")
}

func TestPlainStatus(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPlain(&out, &errOut, 80)

	p.Status([]Field{
		{Label: "Server", Value: "https://netxms.example.com"},
		{Label: "Chat", Value: "#3"},
	})
	assert.Equal(t, "Server: https://netxms.example.com\nChat: #3\n", out.String())
}
