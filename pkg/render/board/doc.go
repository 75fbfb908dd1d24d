// Package board renders the editor canvas as SVG.
//
// The output mirrors the interactive view: links are drawn as straight
// lines trimmed to the node circles with an arrowhead at the target,
// selected entities are highlighted, the pending source of the link tool
// is dashed, and an active rubber band is drawn on top.
//
//	svg := board.RenderSVG(view.Graph,
//	    board.WithSelection(view.Selection),
//	    board.WithState(view.State),
//	)
//
// For exported images use [WithFit] to frame the whole graph instead of
// the current viewport.
//
// # Styles
//
// Drawing is delegated to a [Style]. [Simple] is the default.
package board
