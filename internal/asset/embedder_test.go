package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewrite_SrcAttributeEmbedded(t *testing.T) {
	e := New([]Asset{{Name: "cover.png", MIME: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}}, nil)
	out, warnings := e.Rewrite(`<img src="cover.png">`)
	assert.Empty(t, warnings)
	assert.Contains(t, out, `src="data:image/png;base64,`)
}

func TestRewrite_CSSUrlFunctionEmbedded(t *testing.T) {
	e := New([]Asset{{Name: "bg.svg", MIME: "image/svg+xml", Data: []byte("<svg/>")}}, nil)
	out, warnings := e.Rewrite(`background: url('bg.svg');`)
	assert.Empty(t, warnings)
	assert.Contains(t, out, "data:image/svg+xml;base64,")
}

func TestRewrite_ExternalURLLeftAlone(t *testing.T) {
	e := New(nil, nil)
	out, warnings := e.Rewrite(`<img src="https://example.com/a.png">`)
	assert.Empty(t, warnings)
	assert.Equal(t, `<img src="https://example.com/a.png">`, out)
}

func TestRewrite_UnknownReferenceWarns(t *testing.T) {
	e := New(nil, nil)
	out, warnings := e.Rewrite(`<img src="missing.png">`)
	assert.NotEmpty(t, warnings)
	assert.Equal(t, `<img src="missing.png">`, out)
}

func TestRewrite_CaseSensitiveAssetNames(t *testing.T) {
	e := New([]Asset{{Name: "Cover.png", MIME: "image/png", Data: []byte{1, 2, 3}}}, nil)
	out, warnings := e.Rewrite(`<img src="cover.png">`)
	assert.NotEmpty(t, warnings)
	assert.Equal(t, `<img src="cover.png">`, out)
}
