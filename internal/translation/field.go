package translation

import "context"

// Field is the translated/original view state of one text field
type Field struct {
	Original   string `json:"original"`
	Translated string `json:"translated,omitempty"`
}

// NewField creates the view state for text, showing a cached translation if one exists
func (g *Gateway) NewField(text, lang string) Field {
	f := Field{Original: text}
	if text == "" {
		return f
	}
	if cached, ok := g.CachedTranslation(text, lang); ok {
		f.Translated = cached
	}
	return f
}

// Display is what the field currently shows
func (f Field) Display() string {
	if f.Translated != "" {
		return f.Translated
	}
	return f.Original
}

// IsTranslated reports whether the translation is showing
func (f Field) IsTranslated() bool {
	return f.Translated != ""
}

// Toggle flips a field between its original and translated text
func (g *Gateway) Toggle(ctx context.Context, f Field, lang string) Field {
	if f.IsTranslated() {
		f.Translated = ""
		return f
	}
	if f.Original == "" {
		return f
	}
	f.Translated = g.Translate(ctx, f.Original, lang)
	return f
}
