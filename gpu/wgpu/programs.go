package wgpu

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/cogentcore/webgpu/wgpu"

	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

//go:embed shaders/*.wgsl
var shaders embed.FS

// Source returns the complete WGSL source of p, with the common
// declarations prepended.
func Source(p gpu.Program) (string, error) {
	common, err := fs.ReadFile(shaders, "shaders/"+gpu.Common.File())
	if err != nil {
		return "", fmt.Errorf("loading %v: %w", gpu.Common, err)
	}
	if p == gpu.Common {
		return string(common), nil
	}
	body, err := fs.ReadFile(shaders, "shaders/"+p.File())
	if err != nil {
		return "", fmt.Errorf("loading %v: %w", p, err)
	}
	return string(common) + "\n" + string(body), nil
}

type entry struct {
	binding    uint32
	visibility wgpu.ShaderStage
	kind       wgpu.BufferBindingType
}

// layouts describes group 0 of each program. Group 1 is always the view.
var layouts = map[gpu.Program][]entry{
	gpu.SamplesToLines: {
		{0, wgpu.ShaderStageCompute, wgpu.BufferBindingTypeReadOnlyStorage},
		{1, wgpu.ShaderStageCompute, wgpu.BufferBindingTypeStorage},
	},
	gpu.ProcessLines: {
		{0, wgpu.ShaderStageCompute, wgpu.BufferBindingTypeStorage},
	},
	gpu.DrawGrid: {
		{0, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform},
	},
	gpu.DrawLine: {
		{0, wgpu.ShaderStageVertex | wgpu.ShaderStageFragment, wgpu.BufferBindingTypeReadOnlyStorage},
		{1, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform},
	},
	gpu.DrawPoints: {
		{0, wgpu.ShaderStageVertex, wgpu.BufferBindingTypeReadOnlyStorage},
		{1, wgpu.ShaderStageVertex | wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform},
	},
	gpu.DrawRect: {
		{0, wgpu.ShaderStageVertex | wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform},
	},
}

// pipelines holds the compiled form of every program.
type pipelines struct {
	view *wgpu.BindGroupLayout
	// groups holds the group 0 layout of each program.
	groups map[gpu.Program]*wgpu.BindGroupLayout

	samplesToLines *wgpu.ComputePipeline
	processLines   *wgpu.ComputePipeline
	grid           *wgpu.RenderPipeline
	line           *wgpu.RenderPipeline
	points         *wgpu.RenderPipeline
	rect           *wgpu.RenderPipeline
}

func newBindGroupLayout(device *wgpu.Device, label string, entries []entry) (*wgpu.BindGroupLayout, error) {
	desc := &wgpu.BindGroupLayoutDescriptor{Label: label}
	for _, e := range entries {
		desc.Entries = append(desc.Entries, wgpu.BindGroupLayoutEntry{
			Binding:    e.binding,
			Visibility: e.visibility,
			Buffer:     wgpu.BufferBindingLayout{Type: e.kind},
		})
	}
	return device.CreateBindGroupLayout(desc)
}

func newPipelines(device *wgpu.Device, format wgpu.TextureFormat) (*pipelines, error) {
	p := &pipelines{groups: make(map[gpu.Program]*wgpu.BindGroupLayout)}
	var err error
	p.view, err = newBindGroupLayout(device, "view_layout", []entry{
		{0, wgpu.ShaderStageVertex | wgpu.ShaderStageFragment | wgpu.ShaderStageCompute, wgpu.BufferBindingTypeUniform},
	})
	if err != nil {
		return nil, fmt.Errorf("view layout: %w", err)
	}
	for prog, entries := range layouts {
		l, err := newBindGroupLayout(device, prog.Name+"_layout", entries)
		if err != nil {
			p.release()
			return nil, fmt.Errorf("%v layout: %w", prog, err)
		}
		p.groups[prog] = l
	}

	if p.samplesToLines, err = p.compute(device, gpu.SamplesToLines, true); err != nil {
		p.release()
		return nil, err
	}
	if p.processLines, err = p.compute(device, gpu.ProcessLines, false); err != nil {
		p.release()
		return nil, err
	}
	for _, r := range []struct {
		prog     gpu.Program
		topology wgpu.PrimitiveTopology
		dst      **wgpu.RenderPipeline
	}{
		{gpu.DrawGrid, wgpu.PrimitiveTopologyTriangleStrip, &p.grid},
		{gpu.DrawLine, wgpu.PrimitiveTopologyTriangleStrip, &p.line},
		{gpu.DrawPoints, wgpu.PrimitiveTopologyTriangleList, &p.points},
		{gpu.DrawRect, wgpu.PrimitiveTopologyTriangleList, &p.rect},
	} {
		if *r.dst, err = p.render(device, r.prog, r.topology, format); err != nil {
			p.release()
			return nil, err
		}
	}
	return p, nil
}

func shaderModule(device *wgpu.Device, prog gpu.Program) (*wgpu.ShaderModule, error) {
	src, err := Source(prog)
	if err != nil {
		return nil, err
	}
	mod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          prog.File(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	})
	if err != nil {
		return nil, fmt.Errorf("compiling %v: %w", prog, err)
	}
	return mod, nil
}

func (p *pipelines) layout(device *wgpu.Device, prog gpu.Program, withView bool) (*wgpu.PipelineLayout, error) {
	groups := []*wgpu.BindGroupLayout{p.groups[prog]}
	if withView {
		groups = append(groups, p.view)
	}
	return device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            prog.Name,
		BindGroupLayouts: groups,
	})
}

func (p *pipelines) compute(device *wgpu.Device, prog gpu.Program, withView bool) (*wgpu.ComputePipeline, error) {
	mod, err := shaderModule(device, prog)
	if err != nil {
		return nil, err
	}
	defer mod.Release()
	layout, err := p.layout(device, prog, withView)
	if err != nil {
		return nil, fmt.Errorf("%v pipeline layout: %w", prog, err)
	}
	defer layout.Release()
	pl, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  prog.Name,
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     mod,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%v pipeline: %w", prog, err)
	}
	return pl, nil
}

// premultiplied is the blend used by every draw program.
var premultiplied = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
	},
	Alpha: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
	},
}

func (p *pipelines) render(device *wgpu.Device, prog gpu.Program, topology wgpu.PrimitiveTopology, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	mod, err := shaderModule(device, prog)
	if err != nil {
		return nil, err
	}
	defer mod.Release()
	layout, err := p.layout(device, prog, true)
	if err != nil {
		return nil, fmt.Errorf("%v pipeline layout: %w", prog, err)
	}
	defer layout.Release()
	pl, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  prog.Name,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     mod,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     mod,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				Blend:     &premultiplied,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%v pipeline: %w", prog, err)
	}
	return pl, nil
}

func (p *pipelines) release() {
	for _, cp := range []*wgpu.ComputePipeline{p.samplesToLines, p.processLines} {
		if cp != nil {
			cp.Release()
		}
	}
	for _, rp := range []*wgpu.RenderPipeline{p.grid, p.line, p.points, p.rect} {
		if rp != nil {
			rp.Release()
		}
	}
	for _, l := range p.groups {
		l.Release()
	}
	if p.view != nil {
		p.view.Release()
	}
}
