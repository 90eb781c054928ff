// Package bom describes the loaded classifier artifact as a CycloneDX
// machine-learning bill of materials.
package bom

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
	"github.com/okian/winequality/internal/classifier"
	"github.com/okian/winequality/internal/domain/features"
)

// Tool identity recorded in metadata.tools.
const (
	ToolName    = "winequality"
	ToolVersion = "v1.0.0"

	task     = "binary-classification"
	property = "winequality:"
)

// Option tweaks the generated document.
type Option func(*builder)

type builder struct {
	toolVersion string
	now         func() time.Time
	serial      func() string
}

// WithToolVersion overrides the version recorded for the generating tool.
func WithToolVersion(v string) Option {
	return func(b *builder) {
		if v != "" {
			b.toolVersion = v
		}
	}
}

// WithClock fixes the metadata timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *builder) {
		if now != nil {
			b.now = now
		}
	}
}

// Build returns a BOM whose metadata component is the model artifact.
func Build(info classifier.Info, opts ...Option) (*cdx.BOM, error) {
	if info.SHA256 == "" && info.Path == "" {
		return nil, ErrNoModel
	}
	b := &builder{
		toolVersion: ToolVersion,
		now:         time.Now,
		serial:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(b)
	}

	bom := cdx.NewBOM()
	bom.SerialNumber = "urn:uuid:" + b.serial()
	bom.Metadata = &cdx.Metadata{
		Timestamp: b.now().UTC().Format(time.RFC3339),
		Component: modelComponent(info),
		Tools: &cdx.ToolsChoice{
			Components: &[]cdx.Component{{
				Type:    cdx.ComponentTypeApplication,
				Name:    ToolName,
				Version: b.toolVersion,
			}},
		},
	}
	return bom, nil
}

func modelComponent(info classifier.Info) *cdx.Component {
	name := strings.TrimSuffix(filepath.Base(info.Path), filepath.Ext(info.Path))
	if name == "" || name == "." {
		name = "model"
	}
	ref := "model-" + name
	if len(info.SHA256) >= 12 {
		ref = "model-" + info.SHA256[:12]
	}

	c := &cdx.Component{
		BOMRef:      ref,
		Type:        cdx.ComponentTypeMachineLearningModel,
		Name:        name,
		Description: "Wine quality classifier: good when the predicted quality score is 7 or higher",
		ModelCard:   modelCard(info),
	}
	if info.SHA256 != "" {
		c.Hashes = &[]cdx.Hash{{Algorithm: cdx.HashAlgoSHA256, Value: info.SHA256}}
	}

	props := []cdx.Property{
		{Name: property + "format", Value: string(info.Format)},
		{Name: property + "size_bytes", Value: strconv.FormatInt(info.SizeBytes, 10)},
	}
	if info.Objective != "" {
		props = append(props, cdx.Property{Name: property + "objective", Value: info.Objective})
	}
	if info.Trees > 0 {
		props = append(props, cdx.Property{Name: property + "trees", Value: strconv.Itoa(info.Trees)})
	}
	for _, s := range features.Specs() {
		props = append(props, cdx.Property{
			Name:  property + "input:" + s.Name,
			Value: fmt.Sprintf("column=%q min=%g max=%g default=%g", s.Column, s.Min, s.Max, s.Default),
		})
	}
	c.Properties = &props
	return c
}

func modelCard(info classifier.Info) *cdx.MLModelCard {
	family := "gradient-boosted-trees"
	if info.Format == classifier.FormatONNX {
		family = "onnx"
	}
	return &cdx.MLModelCard{
		ModelParameters: &cdx.MLModelParameters{
			Task:               task,
			ArchitectureFamily: family,
			ModelArchitecture:  info.Objective,
			Inputs:             &[]cdx.MLInputOutputParameters{{Format: "float[11]: " + strings.Join(features.Columns(), ", ")}},
			Outputs:            &[]cdx.MLInputOutputParameters{{Format: "label int64 in {0,1}; probabilities float[2] (not_good, good)"}},
		},
		Considerations: &cdx.MLModelCardConsiderations{
			UseCases: &[]string{"Estimate whether a wine sample will score 7 or higher from lab measurements"},
			TechnicalLimitations: &[]string{
				"Inputs outside the training ranges are clamped or refused",
				"Predictions are estimates; sensory evaluation remains authoritative",
			},
		},
	}
}

// Encode writes bom as pretty-printed CycloneDX JSON.
func Encode(w io.Writer, bom *cdx.BOM) error {
	enc := cdx.NewBOMEncoder(w, cdx.BOMFileFormatJSON)
	enc.SetPretty(true)
	if err := enc.Encode(bom); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}
