// Package geometry resolves on-screen bounds, clipping and occlusion of
// wireframes, and flattens captured node trees into paint-ordered snapshots.
package geometry

import (
	"strings"

	"github.com/hazyhaar/srkit/srwatch/segment"
)

// Bounds is the absolute rectangle of a wireframe after its own clip.
// Width and Height stay the unclipped dimensions.
type Bounds struct {
	Left   int64
	Top    int64
	Right  int64
	Bottom int64
	Width  int64
	Height int64
}

// ResolveBounds returns the absolute rectangle of w with its clip applied.
func ResolveBounds(w segment.Wireframe) Bounds {
	var c segment.Clip
	if w.Clip != nil {
		c = *w.Clip
	}
	return Bounds{
		Left:   w.X + c.Left,
		Top:    w.Y + c.Top,
		Right:  w.X + w.Width - c.Right,
		Bottom: w.Y + w.Height - c.Bottom,
		Width:  w.Width,
		Height: w.Height,
	}
}

// IsCovering reports whether top fully contains bottom.
func IsCovering(top, bottom Bounds) bool {
	return top.Left <= bottom.Left &&
		top.Top <= bottom.Top &&
		top.Right >= bottom.Right &&
		top.Bottom >= bottom.Bottom
}

// ResolveClip computes the clip of w against its ancestors. Each side keeps
// the largest overflow seen over all ancestors and the wireframe's own clip.
// Returns nil when there are no ancestors or nothing is clipped.
func ResolveClip(w segment.Wireframe, ancestors []segment.Wireframe) *segment.Clip {
	if len(ancestors) == 0 {
		return nil
	}
	var c segment.Clip
	if w.Clip != nil {
		c = *w.Clip
	}
	right := w.X + w.Width
	bottom := w.Y + w.Height
	for _, p := range ancestors {
		pb := ResolveBounds(p)
		c.Left = max(c.Left, pb.Left-w.X)
		c.Top = max(c.Top, pb.Top-w.Y)
		c.Right = max(c.Right, right-pb.Right)
		c.Bottom = max(c.Bottom, bottom-pb.Bottom)
	}
	c.Left = max(c.Left, 0)
	c.Top = max(c.Top, 0)
	c.Right = max(c.Right, 0)
	c.Bottom = max(c.Bottom, 0)
	if c.IsZero() {
		return nil
	}
	return &c
}

// IsCovered reports whether one of the wireframes painted above w is opaque
// and contains w entirely, both taken with their own clip.
func IsCovered(w segment.Wireframe, above []segment.Wireframe) bool {
	target := ResolveBounds(w)
	for _, top := range above {
		if IsCovering(ResolveBounds(top), target) && isOpaque(top) {
			return true
		}
	}
	return false
}

func isOpaque(w segment.Wireframe) bool {
	switch w.Kind() {
	case segment.KindPlaceholder, segment.KindWebview:
		return true
	case segment.KindImage:
		img, _ := w.Image()
		return img.HasContent()
	default:
		return hasOpaqueBackground(w.ShapeStyle)
	}
}

// hasOpaqueBackground only looks at the trailing alpha byte of a #RRGGBBAA
// color. Any other notation counts as translucent.
func hasOpaqueBackground(s *segment.ShapeStyle) bool {
	if s == nil || s.BackgroundColor == "" || s.Opacity == nil {
		return false
	}
	c := s.BackgroundColor
	if len(c) < 2 {
		return false
	}
	return strings.EqualFold(c[len(c)-2:], "ff") && *s.Opacity == 1.0
}

// IsValid reports whether w would paint anything: it needs a positive area,
// and a shape needs a style or a border.
func IsValid(w segment.Wireframe) bool {
	if w.Width <= 0 || w.Height <= 0 {
		return false
	}
	if w.Kind() == segment.KindShape && w.ShapeStyle == nil && w.Border == nil {
		return false
	}
	return true
}
