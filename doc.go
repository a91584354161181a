// Package ggmap renders map layers through isolated worker programs.
//
// # Overview
//
// Each layer of a map has a data source, a surface and a rendering
// program. The program runs behind a message boundary (a goroutine, a
// sub-process or a websocket peer) and turns feature snapshots plus the
// current view into drawing commands. A [Renderer] owns that program for
// one layer and replays its commands onto the layer surface through a
// painter.Painter.
//
// # Quick Start
//
//	v := view.New(800, 600, view.Project(view.World))
//	m := ggmap.NewMap(v, ggmap.WithMediaURL("https://media.example.com"))
//	defer m.Close()
//
//	src := source.New(source.Layer{ID: "parks"}, features...)
//	if _, err := m.AddLayer(ctx, src); err != nil {
//	    return err
//	}
//	if err := m.Wait(ctx); err != nil {
//	    return err
//	}
//	img := m.Snapshot()
//
// # Frames
//
// Every render request mints a new [FrameID]. Command batches come back
// tagged with the id they answer and only the batch for the latest id is
// applied; older batches are discarded whatever order they arrive in. A
// render also sends an advisory cancel message for the frame it replaces
// so the program can stop working on it.
//
// # Programs
//
// Program URLs select a transport by scheme: builtin: for programs
// registered in-process (builtin:default is package program), exec: for
// sub-processes and ws: or wss: for remote programs. See package worker.
//
// # Logging
//
// ggmap is silent by default. Use [SetLogger] to enable structured
// logging for ggmap and its sub-packages.
package ggmap
