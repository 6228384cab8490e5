package convert

import (
	"fmt"

	"github.com/kohaku-dev/genmeta/core"
)

// ComfyUI converts the prompt/workflow chunk pair. Towards JPEG/WebP a
// graph consisting of exactly those two chunks uses the extended two-tag
// form: the prompt in ImageDescription and the workflow in Make, each behind
// its keyword label. Anything richer falls back to the generic JSON form.
// Towards PNG the sub-formats are tried in that same priority order.
type ComfyUI struct{}

const (
	comfyPromptKeyword   = "prompt"
	comfyWorkflowKeyword = "workflow"
)

func (ComfyUI) Convert(p *Parsed, target core.FormatID) (*core.RawMetadata, error) {
	generic := KVJSON{Strategy: StrategyDynamic}
	switch {
	case p.Raw.Format == core.FmtPNG:
		if out, ok := comfyExtendedFromPNG(p.Raw.PNG, target); ok {
			return out, nil
		}
		return generic.Convert(p, target)
	case target == core.FmtPNG:
		if out, ok := comfyExtendedToPNG(p.Raw.Segments); ok {
			return out, nil
		}
		if out, err := generic.Convert(p, target); err == nil {
			return out, nil
		}
		return nil, fmt.Errorf("comfyui: no recognized sub-format: %w", core.ErrConversionFailed)
	default:
		return generic.Convert(p, target)
	}
}

func comfyExtendedFromPNG(records []core.PngTextRecord, target core.FormatID) (*core.RawMetadata, bool) {
	if len(records) != 2 {
		return nil, false
	}
	var prompt, workflow *core.PngTextRecord
	for i := range records {
		switch records[i].Keyword {
		case comfyPromptKeyword:
			prompt = &records[i]
		case comfyWorkflowKeyword:
			workflow = &records[i]
		}
	}
	if prompt == nil || workflow == nil {
		return nil, false
	}
	return &core.RawMetadata{
		Format: target,
		Segments: []core.Segment{
			{Source: core.Source{Kind: core.SrcImageDescription, Prefix: comfyPromptKeyword}, Text: prompt.Text},
			{Source: core.Source{Kind: core.SrcMake, Prefix: comfyWorkflowKeyword}, Text: workflow.Text},
		},
	}, true
}

func comfyExtendedToPNG(segs []core.Segment) (*core.RawMetadata, bool) {
	var prompt, workflow *core.Segment
	for i := range segs {
		s := &segs[i]
		switch {
		case s.Source.Kind == core.SrcImageDescription && s.Source.Prefix == comfyPromptKeyword:
			prompt = s
		case s.Source.Kind == core.SrcMake && s.Source.Prefix == comfyWorkflowKeyword:
			workflow = s
		}
	}
	if prompt == nil || workflow == nil {
		return nil, false
	}
	return &core.RawMetadata{
		Format: core.FmtPNG,
		PNG: []core.PngTextRecord{
			EncodePNGText(StrategyDynamic, comfyPromptKeyword, prompt.Text),
			EncodePNGText(StrategyDynamic, comfyWorkflowKeyword, workflow.Text),
		},
	}, true
}
