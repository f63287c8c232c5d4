// Package styles defines the visual theme of family tree cards and the text
// measurement used to size them.
//
// # Theme
//
// A [Theme] holds every dimension and color the renderers use: card height,
// avatar size, paddings, font sizes, the accent color per gender and the
// connector colors. [DefaultTheme] returns the stock look.
//
// # Text Measurement
//
// Card width depends on the rendered length of the person's name and label,
// so long names never overlap their neighbours. [TextMeasurer] abstracts the
// measurement:
//
//   - [FontMeasurer] measures with the embedded Go Regular font, matching what
//     the PNG sink draws.
//   - [HeuristicMeasurer] estimates from a fixed average character width. It
//     needs no font data and is what tests use for exact arithmetic.
//
// [CardSize] combines both into the final card dimensions.
package styles
