// Package lyric parses timed lyrics and keeps them in sync with playback.
//
// # Format
//
// Lines carry one or more stamps in front of the text:
//
//	[00:12.30]First line
//	[00:15.00][01:20.00]Chorus
//	[1:02:03.50]Long tracks use hours
//	[7.25]Seconds only
//
// Other bracketed tags such as [ar:Artist] are ignored. A translation is a
// second LRC text whose stamps line up with the original.
//
// # Sync
//
// Live turns position ticks into sentence changes. The position is moved
// forward by an offset (DefaultOffset, 300ms) before the lookup, so with
//
//	[00:00.00]Hello
//	[00:02.00]World
//
// "World" becomes current from 1.7s on.
package lyric
