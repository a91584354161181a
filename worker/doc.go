// Package worker runs layer rendering programs behind an isolated message
// boundary.
//
// A program receives feature snapshots and frame requests as JSON messages
// and answers with acknowledgements and drawing command batches. The host
// side talks to it through a [Channel], which owns a bounded outbound queue
// and dispatches responses either to one-shot acknowledgement handlers or
// to a persistent frame handler.
//
// Programs are addressed by URL. The scheme selects the transport:
//
//	builtin:default?l=roads        in-process program, see RegisterProgram
//	exec:/usr/local/bin/prog?l=x   sub-process speaking NDJSON on stdio
//	ws://host:8080/render?l=x      remote program over a websocket
//
// The l parameter carries the layer id. For exec: URLs, repeated arg
// parameters are passed as command line arguments.
//
// Additional transports can be added with [Register]. [Serve] is the
// program-side runtime shared by all transports.
package worker
