// Package model defines the entities every provider speaks in.
//
// # Identity
//
// Every model is identified by a Key made of its ModelType, the source
// (provider identifier) and a provider-scoped identifier:
//
//	k := model.Key{Type: model.TypeSong, Source: "local", Identifier: "3f2a9c"}
//	fmt.Println(k) // fuo://local/songs/3f2a9c
//
// Keys are comparable and are used directly as map keys.
//
// # Brief and Full
//
// Each entity exists in two variants. A brief model (BriefSong, BriefAlbum,
// ...) carries only what is needed to render one line and is what lists,
// playlists and collection files hold. A full model (*Song, *Album, ...)
// adds relations and large fields and is obtained by upgrading the brief
// through the library:
//
//	full, err := lib.SongUpgrade(ctx, brief)
//
// Brief models carry a ModelState so a failed upgrade is not retried.
//
// # Media
//
// Media describes something a player can open. Providers that serve
// several qualities list them, and SelectQuality picks one according to
// a policy string such as "hq<>":
//
//	q, ok := model.SelectQuality(model.AudioQualities, available, "hq<>")
package model
