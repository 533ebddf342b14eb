package diff

import (
	"reflect"

	"github.com/hazyhaar/srkit/srwatch/segment"
)

// buildUpdate returns an Update carrying only the properties that differ
// between prev and cur. Both must share the same kind.
func buildUpdate(prev, cur segment.Wireframe) segment.Update {
	u := segment.Update{ID: cur.ID, Kind: cur.Kind()}

	if prev.X != cur.X {
		u.X = segment.Ptr(cur.X)
	}
	if prev.Y != cur.Y {
		u.Y = segment.Ptr(cur.Y)
	}
	if prev.Width != cur.Width {
		u.Width = segment.Ptr(cur.Width)
	}
	if prev.Height != cur.Height {
		u.Height = segment.Ptr(cur.Height)
	}
	if !reflect.DeepEqual(prev.Clip, cur.Clip) {
		// a dropped clip is sent as an all-zero clip
		if cur.Clip == nil {
			u.Clip = &segment.Clip{}
		} else {
			u.Clip = segment.Ptr(*cur.Clip)
		}
	}
	if cur.Kind() != segment.KindPlaceholder {
		if !reflect.DeepEqual(prev.ShapeStyle, cur.ShapeStyle) {
			u.ShapeStyle = cur.ShapeStyle
		}
		if !reflect.DeepEqual(prev.Border, cur.Border) {
			u.Border = cur.Border
		}
	}

	switch cur.Kind() {
	case segment.KindText:
		p, _ := prev.Text()
		c, _ := cur.Text()
		if p.Text != c.Text {
			u.Text = segment.Ptr(c.Text)
		}
		if p.TextStyle != c.TextStyle {
			u.TextStyle = segment.Ptr(c.TextStyle)
		}
		if !reflect.DeepEqual(p.TextPosition, c.TextPosition) {
			u.TextPosition = c.TextPosition
		}
	case segment.KindImage:
		p, _ := prev.Image()
		c, _ := cur.Image()
		if p.Base64 != c.Base64 {
			u.Base64 = segment.Ptr(c.Base64)
		}
		if p.ResourceID != c.ResourceID {
			u.ResourceID = segment.Ptr(c.ResourceID)
		}
		if p.MimeType != c.MimeType {
			u.MimeType = segment.Ptr(c.MimeType)
		}
		if !reflect.DeepEqual(p.IsEmpty, c.IsEmpty) {
			u.IsEmpty = c.IsEmpty
		}
	case segment.KindPlaceholder:
		p, _ := prev.Placeholder()
		c, _ := cur.Placeholder()
		if p.Label != c.Label {
			u.Label = segment.Ptr(c.Label)
		}
	case segment.KindWebview:
		p, _ := prev.Webview()
		c, _ := cur.Webview()
		if p.SlotID != c.SlotID {
			u.SlotID = segment.Ptr(c.SlotID)
		}
		if !reflect.DeepEqual(p.IsVisible, c.IsVisible) {
			u.IsVisible = c.IsVisible
		}
	}
	return u
}

// patch applies u onto w. Properties absent from u are left untouched, so a
// style or border removal cannot be expressed and is kept as is.
func patch(w segment.Wireframe, u segment.Update) segment.Wireframe {
	if u.X != nil {
		w.X = *u.X
	}
	if u.Y != nil {
		w.Y = *u.Y
	}
	if u.Width != nil {
		w.Width = *u.Width
	}
	if u.Height != nil {
		w.Height = *u.Height
	}
	if u.Clip != nil {
		if u.Clip.IsZero() {
			w.Clip = nil
		} else {
			w.Clip = segment.Ptr(*u.Clip)
		}
	}
	if u.ShapeStyle != nil {
		w.ShapeStyle = u.ShapeStyle
	}
	if u.Border != nil {
		w.Border = u.Border
	}

	switch w.Kind() {
	case segment.KindText:
		p, _ := w.Text()
		if u.Text != nil {
			p.Text = *u.Text
		}
		if u.TextStyle != nil {
			p.TextStyle = *u.TextStyle
		}
		if u.TextPosition != nil {
			p.TextPosition = u.TextPosition
		}
		w.Payload = p
	case segment.KindImage:
		p, _ := w.Image()
		if u.Base64 != nil {
			p.Base64 = *u.Base64
		}
		if u.ResourceID != nil {
			p.ResourceID = *u.ResourceID
		}
		if u.MimeType != nil {
			p.MimeType = *u.MimeType
		}
		if u.IsEmpty != nil {
			p.IsEmpty = u.IsEmpty
		}
		w.Payload = p
	case segment.KindPlaceholder:
		p, _ := w.Placeholder()
		if u.Label != nil {
			p.Label = *u.Label
		}
		w.Payload = p
	case segment.KindWebview:
		p, _ := w.Webview()
		if u.SlotID != nil {
			p.SlotID = *u.SlotID
		}
		if u.IsVisible != nil {
			p.IsVisible = u.IsVisible
		}
		w.Payload = p
	}
	return w
}
