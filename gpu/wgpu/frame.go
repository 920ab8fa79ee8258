package wgpu

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/cogentcore/webgpu/wgpu"

	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// frame encodes one command buffer. Commands cannot fail individually; the
// first error is kept and reported by Submit.
type frame struct {
	backend *Backend
	encoder *wgpu.CommandEncoder
	target  *wgpu.TextureView

	compute *wgpu.ComputePassEncoder
	render  *wgpu.RenderPassEncoder
	groups  []*wgpu.BindGroup
	err     error
	done    bool
}

func (f *frame) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *frame) bindGroup(label string, layout *wgpu.BindGroupLayout, bufs ...gpu.Buffer) *wgpu.BindGroup {
	if f.err != nil {
		return nil
	}
	desc := &wgpu.BindGroupDescriptor{Label: label, Layout: layout}
	for i, b := range bufs {
		wb, err := lookup(b)
		if err != nil {
			f.fail(fmt.Errorf("%s binding %d: %w", label, i, err))
			return nil
		}
		desc.Entries = append(desc.Entries, wgpu.BindGroupEntry{
			Binding: uint32(i),
			Buffer:  wb,
			Size:    wgpu.WholeSize,
		})
	}
	bg, err := f.backend.dev.device.CreateBindGroup(desc)
	if err != nil {
		f.fail(fmt.Errorf("%s: %w", label, err))
		return nil
	}
	f.groups = append(f.groups, bg)
	return bg
}

func (f *frame) computePass() *wgpu.ComputePassEncoder {
	if f.render != nil {
		f.fail(errors.New("wgpu: compute program recorded after BeginRender"))
		return nil
	}
	if f.compute == nil {
		f.compute = f.encoder.BeginComputePass(nil)
	}
	return f.compute
}

func (f *frame) dispatch(prog gpu.Program, pipeline *wgpu.ComputePipeline, workgroups int, group0 []gpu.Buffer, view gpu.Buffer) {
	if workgroups <= 0 {
		return
	}
	pass := f.computePass()
	programs := f.backend.dev.programs
	bg := f.bindGroup(prog.Name, programs.groups[prog], group0...)
	var vg *wgpu.BindGroup
	if view != nil {
		vg = f.bindGroup(prog.Name+" view", programs.view, view)
	}
	if f.err != nil {
		return
	}
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bg, nil)
	if vg != nil {
		pass.SetBindGroup(1, vg, nil)
	}
	pass.DispatchWorkgroups(uint32(workgroups), 1, 1)
}

func (f *frame) SamplesToLines(b gpu.SamplesToLinesBindings, workgroups int) {
	f.dispatch(gpu.SamplesToLines, f.backend.dev.programs.samplesToLines, workgroups,
		[]gpu.Buffer{b.Samples, b.Lines}, b.View)
}

func (f *frame) ProcessLines(b gpu.ProcessLinesBindings, workgroups int) {
	f.dispatch(gpu.ProcessLines, f.backend.dev.programs.processLines, workgroups,
		[]gpu.Buffer{b.Lines}, nil)
}

func (f *frame) endCompute() {
	if f.compute == nil {
		return
	}
	if err := f.compute.End(); err != nil {
		f.fail(fmt.Errorf("wgpu: ending compute pass: %w", err))
	}
	f.compute.Release()
	f.compute = nil
}

func (f *frame) BeginRender(clear color.NRGBA) {
	f.endCompute()
	if f.render != nil {
		f.fail(errors.New("wgpu: BeginRender called twice"))
		return
	}
	a := float64(clear.A) / 255
	f.render = f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "chart",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    f.target,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(clear.R) / 255 * a,
				G: float64(clear.G) / 255 * a,
				B: float64(clear.B) / 255 * a,
				A: a,
			},
		}},
	})
}

func (f *frame) draw(prog gpu.Program, pipeline *wgpu.RenderPipeline, group0 []gpu.Buffer, view gpu.Buffer, vertices, first int) {
	if f.render == nil {
		f.fail(fmt.Errorf("wgpu: %v drawn before BeginRender", prog))
		return
	}
	if vertices <= 0 {
		return
	}
	programs := f.backend.dev.programs
	bg := f.bindGroup(prog.Name, programs.groups[prog], group0...)
	vg := f.bindGroup(prog.Name+" view", programs.view, view)
	if f.err != nil {
		return
	}
	f.render.SetPipeline(pipeline)
	f.render.SetBindGroup(0, bg, nil)
	f.render.SetBindGroup(1, vg, nil)
	f.render.Draw(uint32(vertices), 1, uint32(first), 0)
}

func (f *frame) DrawGrid(b gpu.GridBindings) {
	f.draw(gpu.DrawGrid, f.backend.dev.programs.grid, []gpu.Buffer{b.Grid}, b.View, 4, 0)
}

func (f *frame) DrawLine(b gpu.LineBindings, vertices int) {
	f.draw(gpu.DrawLine, f.backend.dev.programs.line, []gpu.Buffer{b.Lines, b.Draw}, b.View, vertices, 0)
}

func (f *frame) DrawPoints(b gpu.PointsBindings, firstVertex, vertexCount int) {
	f.draw(gpu.DrawPoints, f.backend.dev.programs.points, []gpu.Buffer{b.Samples, b.Draw}, b.View, vertexCount, firstVertex)
}

func (f *frame) DrawRect(b gpu.RectBindings) {
	f.draw(gpu.DrawRect, f.backend.dev.programs.rect, []gpu.Buffer{b.Rect}, b.View, 6, 0)
}

func (f *frame) release() {
	if f.compute != nil {
		f.compute.Release()
		f.compute = nil
	}
	if f.render != nil {
		f.render.Release()
		f.render = nil
	}
	for _, bg := range f.groups {
		bg.Release()
	}
	f.groups = nil
	f.encoder.Release()
}

func (f *frame) Submit() (<-chan struct{}, error) {
	if f.done {
		return nil, errors.New("wgpu: frame submitted twice")
	}
	f.done = true
	defer f.release()

	f.endCompute()
	if f.render != nil {
		if err := f.render.End(); err != nil {
			f.fail(fmt.Errorf("wgpu: ending render pass: %w", err))
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	cmd, err := f.encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu: finishing frame: %w", err)
	}
	defer cmd.Release()

	b := f.backend
	done := make(chan struct{})
	b.dev.queue.Submit(cmd)
	b.dev.queue.OnSubmittedWorkDone(func(wgpu.QueueWorkDoneStatus) {
		close(done)
	})
	b.pending.Add(1)
	go b.poll()
	return done, nil
}
