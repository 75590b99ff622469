// Package config loads and saves the application settings.
//
// Settings are read with viper from a TOML, JSON or YAML file, picked by
// the file extension. Keys missing from the file take the values of
// DefaultSettings, and FUO_* environment variables override both:
//
//	FUO_SERVER_ADDR=:8080 FUO_LOCAL_MUSIC_DIRS=/music,/nas/music fuo
//
// # Loading from File
//
//	settings, err := config.Load("/home/me/.fuo/config.toml")
//	if err != nil {
//	    // The file exists but is malformed or invalid.
//	}
//
// # Saving Settings
//
//	settings.AudioSelectPolicy = "shq<"
//	err := settings.Save("/home/me/.fuo/config.toml")
//
// # Conversions
//
// ToLibraryConfig, ToDownloadConfig, LyricOffset, MetadataTimeout and
// NewLogger turn settings into what the other packages take.
package config
