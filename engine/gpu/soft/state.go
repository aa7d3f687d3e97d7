package soft

import (
	"github.com/Carmen-Shannon/oxy-cls/engine/renderstate"
)

func (d *Device) SetDepthTest(enabled bool) {
	d.record(Command{Kind: CommandState, Label: "depth_test", Value: enabled})
}

func (d *Device) SetDepthFunc(fn renderstate.CompareFunc) {
	d.record(Command{Kind: CommandState, Label: "depth_func", Value: fn})
}

func (d *Device) SetDepthMask(mask bool) {
	d.record(Command{Kind: CommandState, Label: "depth_mask", Value: mask})
}

func (d *Device) SetColorMask(mask [4]bool) {
	d.record(Command{Kind: CommandState, Label: "color_mask", Value: mask})
}

func (d *Device) SetBlend(enabled bool) {
	d.record(Command{Kind: CommandState, Label: "blend", Value: enabled})
}

func (d *Device) SetBlendFunc(src, dst renderstate.BlendFactor) {
	d.record(Command{Kind: CommandState, Label: "blend_func", Value: [2]renderstate.BlendFactor{src, dst}})
}

func (d *Device) SetCull(enabled bool) {
	d.record(Command{Kind: CommandState, Label: "cull", Value: enabled})
}

func (d *Device) SetCullFace(face renderstate.Face) {
	d.record(Command{Kind: CommandState, Label: "cull_face", Value: face})
}

func (d *Device) SetFrontFace(front renderstate.FrontFace) {
	d.record(Command{Kind: CommandState, Label: "front_face", Value: front})
}
