package settings

// Palette is the colour triple the renderer blends by band intensity.
type Palette struct {
	Name string
	Bass string
	Mid  string
	High string
}

// DefaultPalette is used when the configured name is unknown.
const DefaultPalette = "Synthwave"

// Palettes lists the built-in palettes in display order.
var Palettes = []Palette{
	{Name: "Synthwave", Bass: "#4a0d66", Mid: "#d11da2", High: "#00e8f7"},
	{Name: "Oceanic", Bass: "#002951", Mid: "#0085a1", High: "#ffffff"},
	{Name: "Magma", Bass: "#3d0000", Mid: "#ff4d00", High: "#ffff00"},
	{Name: "Forest", Bass: "#0a2b0a", Mid: "#38761d", High: "#b6d7a8"},
}

// LookupPalette returns the named palette, or the default one.
func LookupPalette(name string) Palette {
	for _, p := range Palettes {
		if p.Name == name {
			return p
		}
	}
	return Palettes[0]
}

// NextPalette returns the palette after name, wrapping around.
func NextPalette(name string) Palette {
	for i, p := range Palettes {
		if p.Name == name {
			return Palettes[(i+1)%len(Palettes)]
		}
	}
	return Palettes[0]
}
