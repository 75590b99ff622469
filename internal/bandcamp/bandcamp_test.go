package bandcamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscography_GetAlbumURLs(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    []string
		wantErr bool
	}{
		{
			name: "single album link",
			html: `<html><body><a href="/album/test-album">Album</a></body></html>`,
			want: []string{"/album/test-album"},
		},
		{
			name: "multiple releases keep page order",
			html: `<html><body>
				<a href="/album/second-album">&quot;</a>
				<a href="/album/first-album">&quot;</a>
				<a href="/track/single-track">&quot;</a>
			</body></html>`,
			want: []string{"/album/second-album", "/album/first-album", "/track/single-track"},
		},
		{
			name: "duplicate albums filtered",
			html: `<html><body>
				<a href="/album/same-album">&quot;</a>
				<a href="/album/same-album?from=grid">&quot;</a>
			</body></html>`,
			want: []string{"/album/same-album"},
		},
		{
			name:    "no albums found",
			html:    `<html><body>No music here</body></html>`,
			wantErr: true,
		},
		{
			name: "single album artist page",
			html: `<html><body>
				<div id="discography"></div>
				<a href="/album/only-album">Only Album</a>
			</body></html>`,
			want: []string{"/album/only-album"},
		},
	}

	d := NewDiscography()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls, err := d.GetAlbumURLs(tt.html)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoAlbumFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, urls)
		})
	}
}

func TestDiscography_ParseArtist(t *testing.T) {
	page := `<html><head><meta property="og:site_name" content="Mystery &amp; Co"></head><body>
	<img class="band-photo" src="https://f4.bcbits.com/img/0001_21.jpg">
	<p id="bio-text">Plays<br>and sings.</p>
	</body></html>`

	info := NewDiscography().ParseArtist(page)
	assert.Equal(t, "Mystery & Co", info.Name)
	assert.Equal(t, "Plays\nand sings.", info.Bio)
	assert.Equal(t, "https://f4.bcbits.com/img/0001_21.jpg", info.PhotoURL)

	info = NewDiscography().ParseArtist(`<p id="band-name-location"> <span class="title">Fallback</span></p>`)
	assert.Equal(t, "Fallback", info.Name)
}

func TestParser_ParseAlbumPage(t *testing.T) {
	mockHTML := `<html>
	<meta property="og:site_name" content="Test Artist">
	<script data-tralbum="{
		&quot;current&quot;:{&quot;title&quot;:&quot;Test Album&quot;,&quot;release_date&quot;:&quot;01 Jan 2023 00:00:00 GMT&quot;},
		&quot;artist&quot;:&quot;Test Artist&quot;,
		&quot;art_id&quot;:1234567890,
		&quot;item_type&quot;:&quot;album&quot;,
		&quot;trackinfo&quot;:[
			{&quot;track_num&quot;:1,&quot;title&quot;:&quot;First Track&quot;,&quot;title_link&quot;:&quot;/track/first-track&quot;,&quot;duration&quot;:180.5,&quot;file&quot;:{&quot;mp3-128&quot;:&quot;//example.com/1.mp3&quot;}},
			{&quot;track_num&quot;:2,&quot;title&quot;:&quot;Second Track&quot;,&quot;title_link&quot;:&quot;/track/second-track&quot;,&quot;duration&quot;:200.0,&quot;file&quot;:null}
		]
	}"></script>
	<tr id="lyrics_row_2"><td><div>Line one<br>Line &amp; two</div></td></tr>
	</html>`

	album, err := NewParser().ParseAlbumPage(mockHTML)
	require.NoError(t, err)

	assert.Equal(t, "Test Artist", album.Artist)
	assert.Equal(t, "Test Album", album.Title())
	assert.Equal(t, "Test Album", album.AlbumTitle)
	assert.Equal(t, "Test Artist", album.SiteName)
	assert.False(t, album.IsTrack())
	assert.Equal(t, "https://f4.bcbits.com/img/a1234567890_0.jpg", album.ArtworkURL())
	assert.Equal(t, 2023, album.Released().Year())

	require.Len(t, album.Tracks, 2)
	first, second := album.Tracks[0], album.Tracks[1]
	assert.Equal(t, "First Track", first.Title)
	assert.Equal(t, "first-track", first.Slug())
	assert.Equal(t, "https://example.com/1.mp3", first.MP3URL())
	assert.Equal(t, int64(180500), first.DurationMS())
	assert.Empty(t, first.Lyrics)
	assert.Empty(t, second.MP3URL())
	assert.Equal(t, "Line one\nLine & two", second.Lyrics)
}

func TestParser_TrackPageAlbumTitle(t *testing.T) {
	page := `<script data-tralbum="{&quot;current&quot;:{&quot;title&quot;:&quot;Song&quot;},&quot;item_type&quot;:&quot;track&quot;,&quot;album_url&quot;:&quot;/album/record&quot;,&quot;trackinfo&quot;:[{&quot;title&quot;:&quot;Song&quot;,&quot;track_num&quot;:null}]}"></script>
	<h3 class="albumTitle"><span class="fromAlbum">The Record</span></h3>`

	album, err := NewParser().ParseAlbumPage(page)
	require.NoError(t, err)
	assert.True(t, album.IsTrack())
	assert.Equal(t, "The Record", album.AlbumTitle)
	assert.Equal(t, "/album/record", album.AlbumURL)
	require.Len(t, album.Tracks, 1)
	assert.Equal(t, 1, album.Tracks[0].TrackNumber())
}

func TestExtractAlbumData(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		wantErr bool
	}{
		{
			name: "valid data-tralbum",
			html: `<html><script data-tralbum="{&quot;current&quot;:{&quot;title&quot;:&quot;Test&quot;}}"></script></html>`,
		},
		{
			name:    "missing data-tralbum",
			html:    `<html><body>No album data</body></html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := extractAlbumData(tt.html)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoAlbumData)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, `{"current":{"title":"Test"}}`, data)
		})
	}
}

func TestFixJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "fix URL concatenation",
			input: `url: "http://example.bandcamp.com" + "/album/test",`,
			want:  `url: "http://example.bandcamp.com/album/test",`,
		},
		{
			name:  "no change needed",
			input: `url: "http://example.bandcamp.com/album/test",`,
			want:  `url: "http://example.bandcamp.com/album/test",`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fixJSON(tt.input))
		})
	}
}

func TestParseItemURL(t *testing.T) {
	tests := []struct {
		raw  string
		want itemRef
		ok   bool
	}{
		{"https://mystery.bandcamp.com/track/dawn?from=search", itemRef{sub: "mystery", kind: "track", slug: "dawn"}, true},
		{"https://mystery.bandcamp.com/album/first-light", itemRef{sub: "mystery", kind: "album", slug: "first-light"}, true},
		{"https://mystery.bandcamp.com", itemRef{sub: "mystery"}, true},
		{"https://mystery.bandcamp.com/music", itemRef{sub: "mystery"}, true},
		{"http://127.0.0.1:8080/mystery/track/dawn", itemRef{sub: "mystery", kind: "track", slug: "dawn"}, true},
		{"http://127.0.0.1:8080/mystery", itemRef{sub: "mystery"}, true},
		{"not a url", itemRef{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseItemURL(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitSubhead(t *testing.T) {
	album, artist := splitSubhead("from First Light by Mystery Artist")
	assert.Equal(t, "First Light", album)
	assert.Equal(t, "Mystery Artist", artist)

	album, artist = splitSubhead("by Mystery Artist")
	assert.Empty(t, album)
	assert.Equal(t, "Mystery Artist", artist)
}
