// Package signal implements the observer primitive the player core uses to
// publish state changes.
//
// # Direct and queued delivery
//
// A Signal calls its slots synchronously by default. A slot connected with
// Queued(loop) is posted to a Loop instead and runs later, in FIFO order,
// never re-entering the emitter's call stack:
//
//	loop := signal.NewLoop()
//	defer loop.Close()
//
//	var songChanged signal.Signal[model.BriefSong]
//	songChanged.Connect(render, signal.Queued(loop))
//
// # Weak connections
//
// ConnectWeak binds a slot to an owner through a weak pointer, so a
// subscription does not keep its subscriber alive:
//
//	signal.ConnectWeak(&p.SongChanged, view, (*View).onSongChanged)
package signal
