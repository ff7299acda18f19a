// Package translator owns the process-wide ESSL translator.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// GetTranslator returns the shared translator, creating it on first use.
// Creation is expensive: it instantiates the translator's wasm module.
func GetTranslator() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
		if initErr != nil {
			initErr = fmt.Errorf("failed to create shader translator: %w", initErr)
		}
	})
	return translator, initErr
}

// Translated is one stage converted for the current context.
type Translated struct {
	Code string
	// Names maps source-level names to the names in Code.
	Names map[string]string
}

// Translate converts a WebGL2 (ESSL 3.00) stage, "vertex" or "fragment",
// to GLSL 4.10, or to ESSL when gles is set.
func Translate(source, stage string, gles bool) (*Translated, error) {
	t, err := GetTranslator()
	if err != nil {
		return nil, err
	}
	outputFormat := gst.OutputFormatGLSL410
	if gles {
		outputFormat = gst.OutputFormatESSL
	}
	out, err := t.TranslateShader(source, stage, gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("%s shader translation failed: %w", stage, err)
	}
	names := make(map[string]string, len(out.Variables))
	for name, v := range out.Variables {
		names[name] = v.MappedName
	}
	return &Translated{Code: out.Code, Names: names}, nil
}

// Mapped returns the translated name for name, or name itself when the
// translator left it alone.
func (t *Translated) Mapped(name string) string {
	if m, ok := t.Names[name]; ok && m != "" {
		return m
	}
	return name
}
