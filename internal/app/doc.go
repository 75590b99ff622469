// Package app wires the player's components from config.Settings.
//
// It is shared by the daemon and the terminal shell: both build an App,
// Start it, and drive it through its exported components.
package app
