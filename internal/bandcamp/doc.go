// Package bandcamp is the provider for releases published on Bandcamp.
//
// Bandcamp has no public API, so the provider reads the same pages a
// browser does:
//
//  1. Album and track pages for songs, albums, media and lyrics
//  2. An artist's music page for the artist and its discography
//  3. The search page for searches
//
// # Identifiers
//
//	song    <subdomain>:<track slug>   mystery:first-light
//	album   <subdomain>:<album slug>   mystery:debut
//	artist  <subdomain>                mystery
//
// # Album Page Parsing
//
// Use the Parser to extract release information from a page:
//
//	parser := bandcamp.NewParser()
//	album, err := parser.ParseAlbumPage(htmlContent)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Album: %s by %s\n", album.Title(), album.Artist)
//
// # Discography Extraction
//
// Use Discography to find all release URLs from an artist's music page:
//
//	disco := bandcamp.NewDiscography()
//	urls, err := disco.GetAlbumURLs(musicPageHTML)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, url := range urls {
//	    fmt.Println(url) // e.g., "/album/my-album"
//	}
//
// # Bandcamp Data Format
//
// Bandcamp embeds album data as JSON in the HTML page within a
// `data-tralbum` attribute. This package extracts and parses that JSON,
// handling Bandcamp's non-standard date format and fixing malformed JSON.
// Tracks whose file is null cannot be streamed; they are listed but have
// no media.
package bandcamp
