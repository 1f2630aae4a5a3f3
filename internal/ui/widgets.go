package ui

import (
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
)

const (
	uiPad         unit.Dp = 12
	uiGap         unit.Dp = 10
	uiRadius      unit.Dp = 12
	uiRadiusSmall unit.Dp = 10
	uiBorder      unit.Dp = 1
	uiCtrlH       unit.Dp = 40
)

var (
	uiBg        = color.NRGBA{A: 255, R: 246, G: 247, B: 249}
	uiSurface   = color.NRGBA{A: 255, R: 255, G: 255, B: 255}
	uiBorderCol = color.NRGBA{A: 255, R: 224, G: 226, B: 230}
	uiText      = color.NRGBA{A: 255, R: 38, G: 38, B: 38}
	uiMuted     = color.NRGBA{A: 255, R: 110, G: 115, B: 125}
	uiPrimary   = color.NRGBA{A: 255, R: 47, G: 108, B: 246}
	uiDanger    = color.NRGBA{A: 255, R: 230, G: 70, B: 70}
	uiWhite     = color.NRGBA{A: 255, R: 255, G: 255, B: 255}
	uiWarnBg    = color.NRGBA{A: 255, R: 255, G: 244, B: 229}
	uiErrBg     = color.NRGBA{A: 255, R: 255, G: 248, B: 248}
)

func newTheme() *material.Theme {
	th := material.NewTheme()
	th.TextSize = unit.Sp(14)
	th.FingerSize = uiCtrlH
	th.Palette = material.Palette{Bg: uiBg, Fg: uiText, ContrastBg: uiPrimary, ContrastFg: uiWhite}
	return th
}

func tabButton(th *material.Theme, gtx layout.Context, c *widget.Clickable, tab *widget.Enum, key, label string) layout.Dimensions {
	for c.Clicked(gtx) {
		tab.Value = key
		gtx.Execute(op.InvalidateCmd{})
	}
	active := tab.Value == key
	fg := uiMuted
	if active {
		fg = uiText
	}

	gtx.Constraints.Min.Y = gtx.Dp(unit.Dp(36))
	return material.Clickable(gtx, c, func(gtx layout.Context) layout.Dimensions {
		inset := layout.Inset{Top: unit.Dp(8), Bottom: unit.Dp(8), Left: unit.Dp(6), Right: unit.Dp(6)}
		return inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			var labelDims layout.Dimensions
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					l := material.Body2(th, label)
					l.Color = fg
					labelDims = l.Layout(gtx)
					return labelDims
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					// underline of the active tab
					size := image.Pt(max(labelDims.Size.X, gtx.Dp(unit.Dp(28))), gtx.Dp(unit.Dp(2)))
					gtx.Constraints.Min, gtx.Constraints.Max = size, size
					if active {
						defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
						paint.Fill(gtx.Ops, uiPrimary)
					}
					return layout.Dimensions{Size: size}
				}),
			)
		})
	})
}

func actionButton(th *material.Theme, gtx layout.Context, c *widget.Clickable, label string, enabled bool, bg, fg color.NRGBA, onClick func()) layout.Dimensions {
	gtx.Constraints.Min.Y = gtx.Dp(uiCtrlH)
	btn := material.Button(th, c, label)
	btn.CornerRadius = uiRadiusSmall
	btn.TextSize = unit.Sp(14)
	btn.Background, btn.Color = bg, fg
	btn.Inset = layout.Inset{Top: unit.Dp(8), Bottom: unit.Dp(8), Left: unit.Dp(14), Right: unit.Dp(14)}
	if !enabled {
		btn.Background = color.NRGBA{A: 255, R: 238, G: 239, B: 242}
		btn.Color = color.NRGBA{A: 255, R: 150, G: 154, B: 162}
		gtx = gtx.Disabled()
	}
	for enabled && c.Clicked(gtx) {
		if onClick != nil {
			onClick()
		}
	}
	return btn.Layout(gtx)
}

func editorLine(th *material.Theme, gtx layout.Context, ed *widget.Editor, hint string) layout.Dimensions {
	gtx.Constraints.Min.Y = gtx.Dp(uiCtrlH)
	e := material.Editor(th, ed, hint)
	e.TextSize = unit.Sp(14)
	e.Color, e.HintColor = uiText, uiMuted
	e.LineHeightScale = 1.1
	return fieldCard.Layout(gtx, e.Layout)
}

func labeledEditor(th *material.Theme, gtx layout.Context, label, hint string, ed *widget.Editor) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions { return caption(th, gtx, label, uiMuted) }),
		layout.Rigid(spacer(unit.Dp(4))),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions { return editorLine(th, gtx, ed, hint) }),
	)
}

// textPage is a titled read-only editor filling the page.
func textPage(th *material.Theme, gtx layout.Context, title string, ed *widget.Editor, actions ...layout.FlexChild) layout.Dimensions {
	head := []layout.FlexChild{
		layout.Rigid(func(gtx layout.Context) layout.Dimensions { return sectionTitle(th, gtx, title) }),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions { return layout.Dimensions{} }),
	}
	head = append(head, actions...)
	return layout.UniformInset(uiPad).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return panelCard.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx, head...)
				}),
				layout.Rigid(spacer(uiGap)),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					gtx.Constraints.Min.Y = gtx.Constraints.Max.Y
					e := material.Editor(th, ed, "")
					e.TextSize = unit.Sp(13)
					e.Color, e.HintColor = uiText, uiMuted
					e.LineHeightScale = 1.25
					return fieldCard.Layout(gtx, e.Layout)
				}),
			)
		})
	})
}

func caption(th *material.Theme, gtx layout.Context, s string, c color.NRGBA) layout.Dimensions {
	l := material.Caption(th, s)
	l.Color = c
	return l.Layout(gtx)
}

func sectionTitle(th *material.Theme, gtx layout.Context, title string) layout.Dimensions {
	l := material.Subtitle1(th, title)
	l.Color = uiText
	return l.Layout(gtx)
}

func spacer(h unit.Dp) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		return layout.Spacer{Width: h, Height: h}.Layout(gtx)
	}
}

// cardStyle is a rounded, bordered background drawn behind a widget.
type cardStyle struct {
	radius unit.Dp
	bg     color.NRGBA
	border color.NRGBA
	inset  layout.Inset
}

var (
	panelCard  = cardStyle{radius: uiRadius, bg: uiSurface, border: uiBorderCol, inset: layout.UniformInset(uiPad)}
	fieldCard  = cardStyle{radius: uiRadiusSmall, bg: uiSurface, border: uiBorderCol, inset: layout.UniformInset(unit.Dp(10))}
	bannerCard = cardStyle{radius: uiRadiusSmall, bg: uiWarnBg, border: uiDanger, inset: layout.UniformInset(uiPad)}
)

func (c cardStyle) Fill(bg color.NRGBA) cardStyle {
	c.bg = bg
	return c
}

// Layout records w first so the background can be sized to it.
func (c cardStyle) Layout(gtx layout.Context, w layout.Widget) layout.Dimensions {
	macro := op.Record(gtx.Ops)
	dims := c.inset.Layout(gtx, w)
	content := macro.Stop()

	bw := gtx.Dp(uiBorder)
	outerR := gtx.Dp(c.radius)
	innerR := max(0, outerR-bw)

	rrect := func(size image.Point, r int) clip.Op {
		return clip.RRect{Rect: image.Rectangle{Max: size}, NE: r, NW: r, SE: r, SW: r}.Op(gtx.Ops)
	}
	paint.FillShape(gtx.Ops, c.border, rrect(dims.Size, outerR))
	off := op.Offset(image.Pt(bw, bw)).Push(gtx.Ops)
	paint.FillShape(gtx.Ops, c.bg, rrect(image.Pt(max(0, dims.Size.X-2*bw), max(0, dims.Size.Y-2*bw)), innerR))
	off.Pop()

	content.Add(gtx.Ops)
	return dims
}
