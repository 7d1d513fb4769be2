package document

// Text attribute names. They apply to runs of cells.
const (
	AttrBold   = "bold"
	AttrItalic = "italic"
	AttrStrike = "strike"
	AttrHref   = "href"
)

// Block attribute names. They apply to whole blocks; a block carries at most
// one of them.
const (
	AttrHeading1 = "heading1"
	AttrQuote    = "quote"
	AttrCode     = "code"
	AttrBullet   = "bullet"
	AttrNumber   = "number"
)

// TextAttributes lists every text attribute name.
var TextAttributes = []string{AttrBold, AttrItalic, AttrStrike, AttrHref}

// BlockAttributes lists every block attribute name.
var BlockAttributes = []string{AttrHeading1, AttrQuote, AttrCode, AttrBullet, AttrNumber}

// TextAttrs is the attribute set of one cell.
type TextAttrs struct {
	Bold   bool
	Italic bool
	Strike bool
	Href   string
}

func (a TextAttrs) IsZero() bool { return a == TextAttrs{} }

// Has reports whether the named text attribute is set.
func (a TextAttrs) Has(name string) bool {
	switch name {
	case AttrBold:
		return a.Bold
	case AttrItalic:
		return a.Italic
	case AttrStrike:
		return a.Strike
	case AttrHref:
		return a.Href != ""
	default:
		return false
	}
}

// With returns a copy with the named attribute set to value. value is only
// consulted for href.
func (a TextAttrs) With(name, value string) TextAttrs {
	switch name {
	case AttrBold:
		a.Bold = true
	case AttrItalic:
		a.Italic = true
	case AttrStrike:
		a.Strike = true
	case AttrHref:
		a.Href = value
	}
	return a
}

// Without returns a copy with the named attribute cleared.
func (a TextAttrs) Without(name string) TextAttrs {
	switch name {
	case AttrBold:
		a.Bold = false
	case AttrItalic:
		a.Italic = false
	case AttrStrike:
		a.Strike = false
	case AttrHref:
		a.Href = ""
	}
	return a
}

func IsTextAttribute(name string) bool {
	for _, n := range TextAttributes {
		if n == name {
			return true
		}
	}
	return false
}

func IsBlockAttribute(name string) bool {
	for _, n := range BlockAttributes {
		if n == name {
			return true
		}
	}
	return false
}

func isListAttribute(name string) bool {
	return name == AttrBullet || name == AttrNumber
}
