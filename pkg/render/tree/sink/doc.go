// Package sink exports a drawn [surface.Scene] to files.
//
// # Formats
//
//   - [RenderSVG]: standalone SVG with embedded avatars. With [WithInteraction]
//     it carries a small script for wheel zoom, drag pan, double-click reset
//     and click-to-highlight of a person and their ancestors.
//   - [RenderPNG]: raster image drawn with gg at a configurable scale.
//   - [RenderJSON]: positioned cards and connector lines for other tools.
//
// Sinks only read the scene. Cards are emitted above lines in the scene's
// z-order, deceased cards keep their opacity and highlighted persons are
// marked.
//
// By default the output frames the content bounds plus padding. Use
// [WithViewport] to export exactly what the surface currently shows.
package sink
