// Package painter executes drawing commands produced by layer programs.
//
// A program describes a frame as an ordered list of commands (set a style
// property, draw a polygon, start a texture, place an image, ...). The
// Painter replays them against a surface.Canvas, in order, keeping track of
// the save depth, the textures built during the frame and the images that
// are still loading.
//
// # Wire format
//
// Commands travel as JSON tagged tuples, the first element naming the
// command:
//
//	[
//	  ["save"],
//	  ["set", "fillStyle", "#ffcc00"],
//	  ["polygon", [[[0,0],[10,0],[10,10]]], ["closePath", "fill"]],
//	  ["restore"]
//	]
//
// Batch implements json.Marshaler and json.Unmarshaler for that form. A
// batch containing an unknown command does not decode at all.
//
// # Images
//
// The "image" command starts an ImageLoader. It fetches the asset through a
// Fetcher at a size rounded up to a fixed bucket, places it inside the
// target extent according to the adjust policy and draws it once the fetch
// completes, unless the painter was cleared in the meantime.
//
// # Concurrency
//
// All Painter methods are safe for concurrent use. Image loads complete on
// their own goroutines and draw under the painter lock.
package painter
