// Package export turns solved graphs into renderer-facing artifacts.
//
// Three artifact families live here:
//
//   - Layout: the snapshot that was solved plus every node's final
//     position, as a durable JSON record ([NewLayout], [WriteLayout],
//     [ReadLayout]).
//   - Frame JSON: the viewport payload serialized as-is for renderers
//     ([WriteFrame], [ExportFrame]).
//   - Graphviz: DOT with pinned positions ([ToDOT]) and SVG, PDF or PNG
//     rasterization for quick visual checks ([RenderSVG], [RenderPDF],
//     [RenderPNG]).
//
// The engine itself never draws. Everything in this package serializes
// what the solver and viewport already computed.
package export
